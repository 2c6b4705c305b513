package agent

import (
	"context"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/dispatch"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/google/uuid"
)

// AgentStream represents an ongoing turn. Events is closed when the turn is
// over; Done is closed right after.
type AgentStream struct {
	Events <-chan events.Event
	Done   <-chan struct{}
}

type SendMessageOptions struct {
	ConversationID uuid.UUID
	Content        string
}

// eventSink forwards events to a stream channel until ctx ends
func eventSink(ctx context.Context, ch chan<- events.Event) func(events.Event) {
	return func(ev events.Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
}

// SendMessageStream runs one user turn and streams its UI events. Only one
// message per conversation may be in flight; a second one gets an
// ErrTurnInProgress error event.
func (a *Agent) SendMessageStream(ctx context.Context, opts SendMessageOptions) AgentStream {
	eventsChan := make(chan events.Event)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(eventsChan)
		publish := eventSink(ctx, eventsChan)

		s, err := a.session(ctx, opts.ConversationID)
		if err != nil {
			publish(&events.ErrorEvent{Error: err})
			return
		}
		if !s.busy.TryLock() {
			publish(&events.ErrorEvent{Error: ErrTurnInProgress})
			return
		}
		defer s.busy.Unlock()

		publish(events.TurnStartEvent{ConversationID: s.id.String(), Query: opts.Content})
		res, err := a.runTurn(ctx, s, opts.Content, publish)
		if err != nil {
			publish(&events.ErrorEvent{Error: err})
		}
		publish(events.TurnDoneEvent{State: res.State.String(), Version: res.Version})
	}()

	return AgentStream{Events: eventsChan, Done: done}
}

// SendMessage runs a turn and returns its result, delivering UI events to publish
func (a *Agent) SendMessage(ctx context.Context, opts SendMessageOptions, publish func(events.Event)) (dispatch.Result, error) {
	if publish == nil {
		publish = func(events.Event) {}
	}
	s, err := a.session(ctx, opts.ConversationID)
	if err != nil {
		return dispatch.Result{State: dispatch.StateFailed}, err
	}
	if !s.busy.TryLock() {
		return dispatch.Result{State: dispatch.StateFailed}, ErrTurnInProgress
	}
	defer s.busy.Unlock()
	return a.runTurn(ctx, s, opts.Content, publish)
}

// runTurn expects the session's busy lock to be held
func (a *Agent) runTurn(ctx context.Context, s *session, content string, publish func(events.Event)) (dispatch.Result, error) {
	logger := a.logger.With("conversation", s.id)
	failed := dispatch.Result{State: dispatch.StateFailed, Version: s.ledger.Read().Version}

	system, err := a.prompts.System(SystemPrompt, a.registry.Declarations())
	if err != nil {
		return failed, fmt.Errorf("failed to build system prompt: %w", err)
	}

	userTurn := domain.Turn{Role: domain.RoleUser, Content: content}
	history := append(s.ledger.Read().Turns, userTurn)
	// The user turn is committed together with the reply, so a failed turn
	// leaves no trace in the ledger.
	s.ledger.Append(userTurn)

	factory := ui.NewFactory(publish)
	reply := factory.New(view.Spinner{Label: "Thinking..."})

	stream, err := a.provider.Stream(ctx, llm.Request{
		SystemPrompt: system,
		History:      history,
		Tools:        a.registry.Declarations(),
	})
	if err != nil {
		s.ledger.Rollback()
		_ = reply.Seal(view.ErrorMessage{Text: "model unavailable: " + err.Error()})
		return failed, &dispatch.StreamTransportError{Err: err}
	}

	logger.Debug("turn started", "provider", a.provider.Name(), "history", len(history))
	res, err := a.dispatcher.Run(ctx, stream, registry.Turn{
		ConversationID: s.id.String(),
		Query:          content,
		Ledger:         s.ledger,
		UI:             factory,
		Logger:         logger,
	}, reply)
	if err != nil {
		logger.Warn("turn failed", "error", err)
		return res, err
	}

	a.ensureTitle(ctx, s, content)
	if len(res.Calls) == 0 && res.Text != "" {
		a.history.Record(s.id.String(), content, res.Text, "text")
	}
	return res, nil
}

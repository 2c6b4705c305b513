package agent

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/dispatch"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/prompt"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/repository/sqlite"
	"github.com/Ocada-ai-biz/agentx/internal/task"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	streams  []llm.Stream
	err      error
	requests []llm.Request
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.streams) == 0 {
		return llm.NewSliceStream(), nil
	}
	s := p.streams[0]
	p.streams = p.streams[1:]
	return s, nil
}

type blockingStream struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStream) Next(ctx context.Context) (llm.Fragment, error) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-s.release:
		return llm.Fragment{}, io.EOF
	case <-ctx.Done():
		return llm.Fragment{}, ctx.Err()
	}
}

func (s *blockingStream) Close() error { return nil }

type noteArgs struct {
	Note string `json:"note" jsonschema:"required"`
}

type fixture struct {
	agent    *Agent
	store    *sqlite.Store
	provider *fakeProvider
	tasks    *task.Supervisor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Initialize(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := registry.New()
	registry.MustRegister(reg, "note", "Take a note", func(ctx context.Context, turn *registry.Turn, args noteArgs) error {
		if err := turn.Sink.Seal(view.BotMessage{Text: "noted: " + args.Note}); err != nil {
			return err
		}
		turn.Ledger.Append(domain.Turn{Role: domain.RoleFunction, Name: "note", Content: "[" + args.Note + "]"})
		return nil
	})
	reg.Freeze()

	prompts := prompt.NewManager()
	require.NoError(t, prompts.AddTemplate(SystemPrompt, "You help. Tools: {{ len .Tools }}"))

	tasks := task.New()
	provider := &fakeProvider{}
	a, err := New(Options{
		Conversations: store.Conversations,
		History:       NewHistoryRecorder(store.History, tasks),
		Provider:      provider,
		Registry:      reg,
		Prompts:       prompts,
		Tasks:         tasks,
		PurchaseStep:  time.Millisecond,
	})
	require.NoError(t, err)
	return &fixture{agent: a, store: store, provider: provider, tasks: tasks}
}

func drain(s AgentStream) []events.Event {
	var out []events.Event
	for ev := range s.Events {
		out = append(out, ev)
	}
	<-s.Done
	return out
}

func lastDone(t *testing.T, evs []events.Event) events.TurnDoneEvent {
	t.Helper()
	for i := len(evs) - 1; i >= 0; i-- {
		if d, ok := evs[i].(events.TurnDoneEvent); ok {
			return d
		}
	}
	t.Fatal("no TurnDoneEvent")
	return events.TurnDoneEvent{}
}

func TestNewRequiresFrozenRegistry(t *testing.T) {
	prompts := prompt.NewManager()
	require.NoError(t, prompts.AddTemplate(SystemPrompt, "x"))
	_, err := New(Options{
		Conversations: newFixture(t).store.Conversations,
		Provider:      &fakeProvider{},
		Registry:      registry.New(),
		Prompts:       prompts,
	})
	assert.Error(t, err)
}

func TestTextTurnIsPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.streams = []llm.Stream{llm.NewSliceStream(llm.TextFragment("Hello"), llm.TextFragment(" there"))}

	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	evs := drain(f.agent.SendMessageStream(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "hi"}))
	require.NotEmpty(t, evs)
	start, ok := evs[0].(events.TurnStartEvent)
	require.True(t, ok)
	assert.Equal(t, "hi", start.Query)
	done := lastDone(t, evs)
	assert.Equal(t, "done", done.State)
	assert.Equal(t, 1, done.Version)

	req := f.provider.requests[0]
	assert.Equal(t, "You help. Tools: 1", req.SystemPrompt)
	require.Len(t, req.History, 1)
	assert.Equal(t, domain.RoleUser, req.History[0].Role)

	turns, err := f.store.Conversations.GetTurns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, "Hello there", turns[1].Content)

	got, err := f.store.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Title)

	f.tasks.Wait()
	records, err := f.store.History.List(ctx, &conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "text", records[0].Kind)
	assert.Equal(t, "Hello there", records[0].Answer)
}

func TestToolTurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.streams = []llm.Stream{llm.NewSliceStream(
		llm.Fragment{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "c1", Name: "note", Arguments: `{"note":`}}},
		llm.Fragment{ToolCalls: []llm.ToolCallDelta{{Index: 0, Arguments: `"buy low"}`}}},
	)}
	conv, err := f.agent.NewConversation(ctx, "notes")
	require.NoError(t, err)

	var uis []events.UIEvent
	res, err := f.agent.SendMessage(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "remember"}, func(ev events.Event) {
		if ue, ok := ev.(events.UIEvent); ok {
			uis = append(uis, ue)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateDone, res.State)
	require.Len(t, res.Calls, 1)
	assert.NoError(t, res.Calls[0].Err)

	require.NotEmpty(t, uis)
	last := uis[len(uis)-1]
	assert.True(t, last.Sealed)
	assert.Equal(t, view.BotMessage{Text: "noted: buy low"}, last.View)

	snap, err := f.agent.Snapshot(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, snap.Turns, 2)
	assert.Equal(t, "[buy low]", snap.Turns[1].Content)

	got, err := f.store.Conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Title)
}

func TestFailedTurnLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.streams = []llm.Stream{&llm.SliceStream{
		Fragments: []llm.Fragment{llm.TextFragment("partial")},
		Err:       errors.New("connection reset"),
	}}
	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	evs := drain(f.agent.SendMessageStream(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "hi"}))
	var errEv *events.ErrorEvent
	for _, ev := range evs {
		if e, ok := ev.(*events.ErrorEvent); ok {
			errEv = e
		}
	}
	require.NotNil(t, errEv)
	var transport *dispatch.StreamTransportError
	assert.ErrorAs(t, errEv.Error, &transport)
	assert.Equal(t, "failed", lastDone(t, evs).State)

	snap, err := f.agent.Snapshot(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Turns)
	turns, err := f.store.Conversations.GetTurns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestProviderErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.err = errors.New("no api key")
	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	res, err := f.agent.SendMessage(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "hi"}, nil)
	require.Error(t, err)
	assert.Equal(t, dispatch.StateFailed, res.State)

	snap, err := f.agent.Snapshot(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Turns)
}

func TestOneMessageInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	blocking := &blockingStream{started: make(chan struct{}, 1), release: make(chan struct{})}
	f.provider.streams = []llm.Stream{blocking}
	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	first := f.agent.SendMessageStream(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "one"})
	go func() {
		for range first.Events {
		}
	}()
	<-blocking.started

	_, err = f.agent.SendMessage(ctx, SendMessageOptions{ConversationID: conv.ID, Content: "two"}, nil)
	assert.ErrorIs(t, err, ErrTurnInProgress)
	assert.ErrorIs(t, f.agent.DeleteConversation(ctx, conv.ID), ErrTurnInProgress)

	close(blocking.release)
	<-first.Done
}

func TestConfirmPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	stream, err := f.agent.ConfirmPurchase(ctx, PurchaseOptions{ConversationID: conv.ID, Symbol: "sol", Price: 150, Amount: 2})
	require.NoError(t, err)
	evs := drain(stream)

	var sealed []events.UIEvent
	for _, ev := range evs {
		if ue, ok := ev.(events.UIEvent); ok && ue.Sealed {
			sealed = append(sealed, ue)
		}
	}
	require.Len(t, sealed, 2)
	assert.Equal(t, view.BotMessage{Text: "You have successfully purchased 2 SOL. Total cost: $300.00"}, sealed[0].View)
	assert.IsType(t, view.SystemMessage{}, sealed[1].View)
	assert.Equal(t, 1, lastDone(t, evs).Version)

	snap, err := f.agent.Snapshot(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, domain.RoleSystem, snap.Turns[0].Role)
	assert.Equal(t, "[User has purchased 2 tokens of SOL at 150. Total cost = 300]", snap.Turns[0].Content)

	f.agent.Shutdown()
	turns, err := f.store.Conversations.GetTurns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestConfirmPurchaseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conv, err := f.agent.NewConversation(ctx, "")
	require.NoError(t, err)

	for _, opts := range []PurchaseOptions{
		{ConversationID: conv.ID, Symbol: "", Price: 1, Amount: 1},
		{ConversationID: conv.ID, Symbol: "SOL", Price: 0, Amount: 1},
		{ConversationID: conv.ID, Symbol: "SOL", Price: 1, Amount: 0},
		{ConversationID: conv.ID, Symbol: "SOL", Price: 1, Amount: 1001},
	} {
		_, err := f.agent.ConfirmPurchase(ctx, opts)
		assert.Error(t, err)
	}
}

func TestResolveConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.agent.ResolveConversation(ctx, "")
	require.NoError(t, err)

	again, err := f.agent.ResolveConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	byPrefix, err := f.agent.ResolveConversation(ctx, created.ID.String()[:6])
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPrefix.ID)

	require.NoError(t, f.agent.DeleteConversation(ctx, created.ID))
	_, err = f.agent.ResolveConversation(ctx, created.ID.String()[:6])
	assert.True(t, domain.IsNoConversationError(err))
}

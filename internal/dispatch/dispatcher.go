// Package dispatch turns a streamed model response into UI updates, tool
// handler invocations and ledger turns.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/sourcegraph/conc/panics"
)

type State int

const (
	StateStreaming State = iota
	StateResolving
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateResolving:
		return "resolving"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CallOutcome records how one tool frame was resolved. Err is nil on success.
type CallOutcome struct {
	Frame Frame
	Err   error
}

type Result struct {
	State   State
	Text    string
	Calls   []CallOutcome
	Version int
}

type Options struct {
	// Timeout bounds a whole turn, streaming and handlers included
	Timeout time.Duration
	Logger  *slog.Logger
}

type Dispatcher struct {
	reg    *registry.Registry
	opts   Options
	logger *slog.Logger
}

func New(reg *registry.Registry, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{reg: reg, opts: opts, logger: logger}
}

// run holds the per-turn state
type run struct {
	d      *Dispatcher
	stream llm.Stream
	acc    Accumulator
	turn   registry.Turn
	reply  ui.Sink
	opened []ui.Sink
	res    Result
	logger *slog.Logger
}

// Run consumes the stream until its terminal signal, then resolves every tool
// frame in first-observed order. The turn's Ledger is committed only when the
// run reaches Done. A StreamTransportError is returned for transport
// failures, cancellation and timeouts; every other failure is confined to its
// frame.
func (d *Dispatcher) Run(ctx context.Context, stream llm.Stream, turn registry.Turn, reply ui.Sink) (Result, error) {
	defer stream.Close()

	if turn.Ledger == nil {
		return Result{State: StateFailed}, errors.New("dispatch: turn has no ledger")
	}
	if turn.UI == nil {
		turn.UI = ui.NewFactory(nil)
	}
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	r := &run{
		d:      d,
		stream: stream,
		turn:   turn,
		reply:  reply,
		opened: []ui.Sink{reply},
		res:    Result{State: StateStreaming},
		logger: d.logger.With("conversation", turn.ConversationID),
	}
	if turn.Logger == nil {
		r.turn.Logger = r.logger
	}
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (Result, error) {
	frames := NewFrameTracker()

	for {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		frag, err := r.stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.fail(err)
		}

		if text, changed := r.acc.Accumulate(frag); changed {
			if err := r.reply.Update(view.BotMessage{Text: text}); err != nil {
				r.logger.Warn("reply update rejected", "error", err)
			}
		}
		for _, delta := range frag.ToolCalls {
			frames.Observe(delta)
		}
	}

	r.res.State = StateResolving
	r.res.Text = r.acc.Text()
	snapshot := frames.Snapshot()
	r.logger.Debug("stream complete", "text_len", len(r.res.Text), "frames", len(snapshot))

	if len(snapshot) == 0 {
		r.sealReply()
		return r.done(), nil
	}

	replyFree := true
	if r.res.Text != "" {
		r.sealReply()
		replyFree = false
	}

	for i, fr := range snapshot {
		var sink ui.Sink
		if i == 0 && replyFree {
			sink = r.reply
			_ = sink.Update(view.Spinner{Label: fr.Name})
		} else {
			sink = r.turn.UI.New(view.Spinner{Label: fr.Name})
			r.opened = append(r.opened, sink)
		}

		err := r.resolve(ctx, fr, sink)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.fail(ctxErr)
		}
		r.res.Calls = append(r.res.Calls, CallOutcome{Frame: fr, Err: err})
	}

	return r.done(), nil
}

func (r *run) sealReply() {
	if err := r.reply.Seal(view.BotMessage{Text: r.res.Text}); err != nil {
		r.logger.Warn("reply seal rejected", "error", err)
	}
	if r.res.Text != "" {
		r.turn.Ledger.Append(domain.Turn{Role: domain.RoleAssistant, Content: r.res.Text})
	}
}

func (r *run) done() Result {
	r.res.Version = r.turn.Ledger.Commit()
	r.res.State = StateDone
	r.logger.Debug("turn committed", "version", r.res.Version, "calls", len(r.res.Calls))
	return r.res
}

// resolve runs one frame. Any failure is rendered into the frame's sink and
// recorded as an error-marked function turn.
func (r *run) resolve(ctx context.Context, fr Frame, sink ui.Sink) error {
	logger := r.logger.With("tool", fr.Name, "call_id", fr.ID)

	err := r.invoke(ctx, fr, sink, logger)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("tool call failed", "error", err)
		marker := view.ErrorMessage{Text: err.Error()}
		if serr := sink.Seal(marker); errors.Is(serr, ui.ErrSealed) {
			// the handler sealed before failing; show the error below it
			if serr := r.turn.UI.New(nil).Seal(marker); serr != nil {
				logger.Warn("error seal rejected", "error", serr)
			}
		} else if serr != nil {
			logger.Warn("error seal rejected", "error", serr)
		}
		name := fr.Name
		if name == "" {
			name = "tool"
		}
		r.turn.Ledger.Append(domain.Turn{
			Role:    domain.RoleFunction,
			Name:    fr.Name,
			Content: fmt.Sprintf("[%s failed: %s]", name, err),
			IsError: true,
		})
		return err
	}

	if serr := sink.Seal(nil); serr == nil {
		logger.Warn("handler left its region open")
	}
	return nil
}

func (r *run) invoke(ctx context.Context, fr Frame, sink ui.Sink, logger *slog.Logger) error {
	reg, err := r.d.reg.Lookup(fr.Name)
	if err != nil {
		return err
	}

	var raw map[string]any
	if args := strings.TrimSpace(fr.Arguments); args != "" {
		if err := json.Unmarshal([]byte(args), &raw); err != nil {
			return &ArgumentParseError{Tool: fr.Name, Arguments: fr.Arguments, Err: err}
		}
	}

	call, err := reg.Validate(raw)
	if err != nil {
		return err
	}

	turn := r.turn
	turn.Sink = sink
	turn.CallID = fr.ID
	turn.Logger = logger

	var herr error
	var pc panics.Catcher
	pc.Try(func() {
		herr = reg.Invoke(ctx, &turn, call)
	})
	if rec := pc.Recovered(); rec != nil {
		herr = rec.AsError()
	}
	if herr != nil {
		return &HandlerExecutionError{Tool: fr.Name, Err: herr}
	}
	return nil
}

// fail discards the staged turns and closes every region this run opened
func (r *run) fail(cause error) (Result, error) {
	r.res.State = StateFailed
	dropped := r.turn.Ledger.Rollback()
	r.logger.Warn("turn failed", "error", cause, "rolled_back", dropped)

	var marker ui.View
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		reason := "cancelled"
		if errors.Is(cause, context.DeadlineExceeded) {
			reason = "timed out"
		}
		marker = view.Cancelled{Reason: reason}
	} else {
		marker = view.ErrorMessage{Text: "response interrupted: " + cause.Error()}
	}

	r.res.Text = r.acc.Text()
	for i, s := range r.opened {
		v := marker
		if i == 0 && r.res.Text != "" {
			// keep what was already streamed visible above the marker
			v = view.Group{view.BotMessage{Text: r.res.Text}, marker}
		}
		if err := s.Seal(v); err != nil && !errors.Is(err, ui.ErrSealed) {
			r.logger.Warn("failure seal rejected", "error", err)
		}
	}
	return r.res, &StreamTransportError{Err: cause}
}

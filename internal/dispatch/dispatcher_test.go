package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/ledger"
	"github.com/Ocada-ai-biz/agentx/internal/llm"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Msg string `json:"msg" jsonschema:"required"`
}

type harness struct {
	reg    *registry.Registry
	rec    *ui.Recorder
	ledger *ledger.Ledger
	calls  []string
	onCall func(ctx context.Context, turn *registry.Turn, args echoArgs) error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		reg:    registry.New(),
		rec:    ui.NewRecorder(),
		ledger: ledger.New(),
	}
	require.NoError(t, registry.Register(h.reg, "echo", "Echo a message", func(ctx context.Context, turn *registry.Turn, args echoArgs) error {
		h.calls = append(h.calls, args.Msg)
		if h.onCall != nil {
			return h.onCall(ctx, turn, args)
		}
		if err := turn.Sink.Seal(view.BotMessage{Text: "echo: " + args.Msg}); err != nil {
			return err
		}
		turn.Ledger.Append(domain.Turn{Role: domain.RoleFunction, Name: "echo", Content: args.Msg})
		return nil
	}))
	h.reg.Freeze()
	return h
}

func (h *harness) run(ctx context.Context, opts Options, frags ...llm.Fragment) (Result, error, *ui.Handle) {
	return h.runStream(ctx, opts, llm.NewSliceStream(frags...))
}

func (h *harness) runStream(ctx context.Context, opts Options, s llm.Stream) (Result, error, *ui.Handle) {
	factory := ui.NewFactory(h.rec.Publish)
	reply := factory.New(view.Spinner{})
	turn := registry.Turn{ConversationID: "c1", Ledger: h.ledger, UI: factory}
	res, err := New(h.reg, opts).Run(ctx, s, turn, reply)
	return res, err, reply
}

func text(s string) llm.Fragment { return llm.TextFragment(s) }

func call(index int, name, args string) llm.Fragment {
	return llm.Fragment{ToolCalls: []llm.ToolCallDelta{{Index: index, Name: name, Arguments: args}}}
}

func TestTextOnlyReply(t *testing.T) {
	h := newHarness(t)
	res, err, reply := h.run(context.Background(), Options{}, text("Hel"), llm.Fragment{}, text("lo"))
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, 1, res.Version)
	assert.True(t, reply.Sealed())

	evs := h.rec.Events()
	require.Len(t, evs, 4)
	assert.Equal(t, view.BotMessage{Text: "Hel"}, evs[1].View)
	assert.Equal(t, view.BotMessage{Text: "Hello"}, evs[2].View)
	assert.True(t, evs[3].Sealed)

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, domain.RoleAssistant, snap.Turns[0].Role)
	assert.Equal(t, "Hello", snap.Turns[0].Content)
}

func TestEmptyStreamCommitsNothingVisible(t *testing.T) {
	h := newHarness(t)
	res, err, reply := h.run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.True(t, reply.Sealed())
	assert.Equal(t, 0, res.Version)
	assert.Empty(t, h.ledger.Read().Turns)
}

func TestSingleToolCallAssembledAcrossFragments(t *testing.T) {
	h := newHarness(t)
	res, err, reply := h.run(context.Background(), Options{},
		llm.Fragment{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_1", Name: "echo"}}},
		call(0, "", `{"ms`),
		call(0, "", `g":"hi"}`),
	)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []string{"hi"}, h.calls)
	require.Len(t, res.Calls, 1)
	assert.NoError(t, res.Calls[0].Err)
	assert.Equal(t, "call_1", res.Calls[0].Frame.ID)

	// the reply region hosts the only tool call
	assert.Equal(t, view.BotMessage{Text: "echo: hi"}, reply.Current())
	assert.Len(t, h.rec.Regions(), 1)

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, domain.RoleFunction, snap.Turns[0].Role)
}

func TestNoDispatchBeforeTerminalSignal(t *testing.T) {
	h := newHarness(t)
	s := &llm.SliceStream{
		Fragments: []llm.Fragment{call(0, "echo", `{"msg":"early"}`)},
		Err:       errors.New("connection reset"),
	}
	res, err, reply := h.runStream(context.Background(), Options{}, s)

	var transport *StreamTransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, h.calls)
	assert.True(t, reply.Sealed())
	assert.IsType(t, view.ErrorMessage{}, reply.Current())
	assert.Equal(t, 0, h.ledger.Read().Version)
}

func TestFramesRunInFirstObservedOrder(t *testing.T) {
	h := newHarness(t)
	res, err, _ := h.run(context.Background(), Options{},
		call(1, "echo", `{"msg":`),
		call(0, "echo", `{"msg":"second"}`),
		call(1, "", `"first"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, h.calls)
	require.Len(t, res.Calls, 2)
	assert.Equal(t, 1, res.Calls[0].Frame.Index)

	regions := h.rec.Regions()
	require.Len(t, regions, 2)
	for _, r := range regions {
		assert.True(t, r.Sealed)
	}
}

func TestFrameFailuresAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.onCall = func(ctx context.Context, turn *registry.Turn, args echoArgs) error {
		switch args.Msg {
		case "fail":
			return errors.New("provider down")
		case "panic":
			panic("handler bug")
		}
		turn.Ledger.Append(domain.Turn{Role: domain.RoleFunction, Name: "echo", Content: args.Msg})
		return turn.Sink.Seal(view.BotMessage{Text: args.Msg})
	}

	res, err, _ := h.run(context.Background(), Options{},
		call(0, "nope", `{}`),
		call(1, "echo", `{"msg": "broken`),
		call(2, "echo", `{"message":"x"}`),
		call(3, "echo", `{"msg":"fail"}`),
		call(4, "echo", `{"msg":"panic"}`),
		call(5, "echo", `{"msg":"ok"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	require.Len(t, res.Calls, 6)

	assert.ErrorIs(t, res.Calls[0].Err, registry.ErrUnknownTool)
	var parseErr *ArgumentParseError
	assert.ErrorAs(t, res.Calls[1].Err, &parseErr)
	var verr *registry.ValidationError
	assert.ErrorAs(t, res.Calls[2].Err, &verr)
	var herr *HandlerExecutionError
	assert.ErrorAs(t, res.Calls[3].Err, &herr)
	assert.ErrorAs(t, res.Calls[4].Err, &herr)
	assert.Contains(t, res.Calls[4].Err.Error(), "handler bug")
	assert.NoError(t, res.Calls[5].Err)

	assert.Equal(t, []string{"fail", "panic", "ok"}, h.calls)

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 6)
	for i := 0; i < 5; i++ {
		assert.True(t, snap.Turns[i].IsError, "turn %d", i)
		assert.Equal(t, domain.RoleFunction, snap.Turns[i].Role)
	}
	assert.False(t, snap.Turns[5].IsError)

	regions := h.rec.Regions()
	require.Len(t, regions, 6)
	for i := 0; i < 5; i++ {
		assert.True(t, regions[i].Sealed)
		assert.IsType(t, view.ErrorMessage{}, regions[i].View)
	}
}

func TestUnknownArgumentIsRejected(t *testing.T) {
	h := newHarness(t)
	res, err, _ := h.run(context.Background(), Options{},
		call(0, "echo", `{"msg":"hi","injected":"x"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	require.Len(t, res.Calls, 1)

	var verr *registry.ValidationError
	require.ErrorAs(t, res.Calls[0].Err, &verr)
	assert.Equal(t, "injected", verr.Field)
	assert.Empty(t, h.calls)

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 1)
	assert.True(t, snap.Turns[0].IsError)
	assert.Equal(t, domain.RoleFunction, snap.Turns[0].Role)

	regions := h.rec.Regions()
	require.Len(t, regions, 1)
	assert.IsType(t, view.ErrorMessage{}, regions[0].View)
}

func TestErrorAfterSealGetsOwnRegion(t *testing.T) {
	h := newHarness(t)
	h.onCall = func(ctx context.Context, turn *registry.Turn, args echoArgs) error {
		if err := turn.Sink.Seal(view.BotMessage{Text: "done"}); err != nil {
			return err
		}
		return errors.New("history write failed")
	}

	res, err, reply := h.run(context.Background(), Options{}, call(0, "echo", `{"msg":"x"}`))
	require.NoError(t, err)
	require.Len(t, res.Calls, 1)
	assert.Error(t, res.Calls[0].Err)
	assert.Equal(t, view.BotMessage{Text: "done"}, reply.Current())

	regions := h.rec.Regions()
	require.Len(t, regions, 2)
	assert.True(t, regions[1].Sealed)
	require.IsType(t, view.ErrorMessage{}, regions[1].View)
	assert.Contains(t, regions[1].View.(view.ErrorMessage).Text, "history write failed")

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 1)
	assert.True(t, snap.Turns[0].IsError)
}

func TestMixedTextAndToolCall(t *testing.T) {
	h := newHarness(t)
	res, err, reply := h.run(context.Background(), Options{},
		text("Checking "),
		text("now."),
		call(0, "echo", `{"msg":"tool"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, "Checking now.", res.Text)
	assert.Equal(t, view.BotMessage{Text: "Checking now."}, reply.Current())

	snap := h.ledger.Read()
	require.Len(t, snap.Turns, 2)
	assert.Equal(t, domain.RoleAssistant, snap.Turns[0].Role)
	assert.Equal(t, domain.RoleFunction, snap.Turns[1].Role)
	assert.Len(t, h.rec.Regions(), 2)
}

func TestHandlerThatForgetsToSeal(t *testing.T) {
	h := newHarness(t)
	h.onCall = func(ctx context.Context, turn *registry.Turn, args echoArgs) error {
		return turn.Sink.Update(view.BotMessage{Text: "partial"})
	}
	_, err, reply := h.run(context.Background(), Options{}, call(0, "echo", `{"msg":"x"}`))
	require.NoError(t, err)
	assert.True(t, reply.Sealed())
	assert.Equal(t, view.BotMessage{Text: "partial"}, reply.Current())
}

func TestCancellationDuringHandlerRollsBack(t *testing.T) {
	h := newHarness(t)
	h.ledger.Append(domain.Turn{Role: domain.RoleUser, Content: "question"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.onCall = func(ctx context.Context, turn *registry.Turn, args echoArgs) error {
		turn.Ledger.Append(domain.Turn{Role: domain.RoleFunction, Content: "never visible"})
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	res, err, _ := h.run(ctx, Options{},
		text("Let me look."),
		call(0, "echo", `{"msg":"slow"}`),
		call(1, "echo", `{"msg":"skipped"}`),
	)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []string{"slow"}, h.calls)
	assert.Empty(t, h.ledger.Staged())
	assert.Equal(t, 0, h.ledger.Read().Version)

	for _, r := range h.rec.Regions() {
		assert.True(t, r.Sealed)
	}
}

type blockingStream struct{}

func (blockingStream) Next(ctx context.Context) (llm.Fragment, error) {
	<-ctx.Done()
	return llm.Fragment{}, ctx.Err()
}

func (blockingStream) Close() error { return nil }

func TestTimeoutFailsTurn(t *testing.T) {
	h := newHarness(t)
	res, err, reply := h.runStream(context.Background(), Options{Timeout: 20 * time.Millisecond}, blockingStream{})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, view.Cancelled{Reason: "timed out"}, reply.Current())
}

func TestPartialTextKeptOnFailure(t *testing.T) {
	h := newHarness(t)
	s := &llm.SliceStream{Fragments: []llm.Fragment{text("half an ans")}, Err: io.ErrUnexpectedEOF}
	res, err, reply := h.runStream(context.Background(), Options{}, s)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "half an ans", res.Text)
	group, ok := reply.Current().(view.Group)
	require.True(t, ok)
	assert.Equal(t, view.BotMessage{Text: "half an ans"}, group[0])
}

func TestMissingLedger(t *testing.T) {
	reg := registry.New()
	_, err := New(reg, Options{}).Run(context.Background(), llm.NewSliceStream(), registry.Turn{}, ui.NewFactory(nil).New(nil))
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "resolving", StateResolving.String())
	assert.Equal(t, "failed", StateFailed.String())
}

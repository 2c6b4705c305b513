package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/ledger"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	sent      []string
	purchases []agent.PurchaseOptions
	purchErr  error
}

func closedStream() agent.AgentStream {
	ch := make(chan events.Event)
	done := make(chan struct{})
	close(ch)
	close(done)
	return agent.AgentStream{Events: ch, Done: done}
}

func (f *fakeBackend) SendMessageStream(ctx context.Context, opts agent.SendMessageOptions) agent.AgentStream {
	f.sent = append(f.sent, opts.Content)
	return closedStream()
}

func (f *fakeBackend) ConfirmPurchase(ctx context.Context, opts agent.PurchaseOptions) (agent.AgentStream, error) {
	if f.purchErr != nil {
		return agent.AgentStream{}, f.purchErr
	}
	f.purchases = append(f.purchases, opts)
	return closedStream(), nil
}

func (f *fakeBackend) Snapshot(ctx context.Context, id uuid.UUID) (ledger.Snapshot, error) {
	return ledger.Snapshot{}, nil
}

func newModel(t *testing.T, turns []domain.Turn) (Model, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{}
	conv := &domain.Conversation{ID: uuid.New(), Title: "test"}
	return New(context.Background(), b, conv, turns), b
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestHistoryIsRendered(t *testing.T) {
	m, _ := newModel(t, []domain.Turn{
		{Role: domain.RoleUser, Content: "price of sol"},
		{Role: domain.RoleFunction, Name: "show_stock_price", Content: "[Price of SOL = 150]"},
		{Role: domain.RoleAssistant, Content: "There you go"},
	})
	out := m.Transcript()
	assert.Contains(t, out, "price of sol")
	assert.Contains(t, out, "[Price of SOL = 150]")
	assert.Contains(t, out, "There you go")
}

func TestRegionsUpdateInPlace(t *testing.T) {
	m, _ := newModel(t, nil)
	ch := make(chan events.Event)

	next, _ := m.Update(eventMsg{ev: events.UIEvent{Region: "r1", Rendered: "Hel"}, ch: ch})
	m = next.(Model)
	next, _ = m.Update(eventMsg{ev: events.UIEvent{Region: "r2", Rendered: "card"}, ch: ch})
	m = next.(Model)
	next, _ = m.Update(eventMsg{ev: events.UIEvent{Region: "r1", Rendered: "Hello", Sealed: true}, ch: ch})
	m = next.(Model)

	out := m.Transcript()
	assert.Equal(t, 1, strings.Count(out, "Hello"))
	assert.NotContains(t, out, "Hel\n")
	assert.Less(t, strings.Index(out, "Hello"), strings.Index(out, "card"))
}

func TestSendMessage(t *testing.T) {
	m, b := newModel(t, nil)
	m, cmd := typeLine(t, m, "hello")
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"hello"}, b.sent)
	assert.True(t, m.Busy())

	// A second message while the first is in flight is refused
	m, _ = typeLine(t, m, "again")
	assert.Len(t, b.sent, 1)
	assert.Contains(t, m.Transcript(), agent.ErrTurnInProgress.Error())

	msg := cmd()
	closed, ok := msg.(closedMsg)
	require.True(t, ok)
	next, _ := m.Update(closed)
	assert.False(t, next.(Model).Busy())
}

func TestBuyCommand(t *testing.T) {
	m, b := newModel(t, nil)

	m, _ = typeLine(t, m, "/buy sol 2")
	assert.Empty(t, b.purchases)
	assert.Contains(t, m.Transcript(), "no purchase card shown for SOL")

	next, _ := m.Update(eventMsg{
		ev: events.UIEvent{Region: "card", View: view.Purchase{Symbol: "SOL", Price: 150, Amount: 10}, Rendered: "buy card", Sealed: true},
		ch: make(chan events.Event),
	})
	m = next.(Model)

	m, _ = typeLine(t, m, "/buy sol 2")
	require.Len(t, b.purchases, 1)
	assert.Equal(t, agent.PurchaseOptions{ConversationID: m.conv.ID, Symbol: "SOL", Price: 150, Amount: 2}, b.purchases[0])

	m, _ = typeLine(t, m, "/buy SOL")
	require.Len(t, b.purchases, 2)
	assert.Equal(t, 10, b.purchases[1].Amount)

	m, _ = typeLine(t, m, "/buy SOL many")
	assert.Len(t, b.purchases, 2)
	assert.Contains(t, m.Transcript(), `invalid amount "many"`)

	b.purchErr = errors.New("amount must be between 1 and 1000")
	m, _ = typeLine(t, m, "/buy SOL 5000")
	assert.Contains(t, m.Transcript(), "amount must be between 1 and 1000")
}

func TestErrorEventsAreShown(t *testing.T) {
	m, _ := newModel(t, nil)
	next, _ := m.Update(eventMsg{ev: &events.ErrorEvent{Error: errors.New("stream transport error: reset")}, ch: make(chan events.Event)})
	assert.Contains(t, next.(Model).Transcript(), "stream transport error: reset")
}

func TestUnknownCommand(t *testing.T) {
	m, _ := newModel(t, nil)
	m, _ = typeLine(t, m, "/sell btc")
	assert.Contains(t, m.Transcript(), "unknown command /sell")
}

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/ui/theme"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// entry is one line of the transcript: fixed text or a live UI region
type entry struct {
	text   string
	region string
}

type eventMsg struct {
	ev events.Event
	ch <-chan events.Event
}

type closedMsg struct {
	ch <-chan events.Event
}

// listen waits for the next event on ch
func listen(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{ch: ch}
		}
		return eventMsg{ev: ev, ch: ch}
	}
}

type Model struct {
	ctx     context.Context
	backend Backend
	conv    *domain.Conversation
	th      *theme.Theme

	viewport viewport.Model
	input    textinput.Model
	help     help.Model
	ready    bool

	entries []entry
	regions map[string]string
	// offers holds the latest purchase card per symbol, for /buy
	offers map[string]view.Purchase

	turn <-chan events.Event
}

func New(ctx context.Context, backend Backend, conv *domain.Conversation, turns []domain.Turn) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about a token, or /buy SYMBOL AMOUNT"
	ti.Prompt = "┃ "
	ti.CharLimit = 500
	ti.Focus()

	m := Model{
		ctx:      ctx,
		backend:  backend,
		conv:     conv,
		th:       theme.Default,
		viewport: viewport.New(80, 20),
		input:    ti,
		help:     help.New(),
		regions:  make(map[string]string),
		offers:   make(map[string]view.Purchase),
	}
	for _, t := range turns {
		if line := m.renderTurn(t); line != "" {
			m.entries = append(m.entries, entry{text: line})
		}
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Busy() bool {
	return m.turn != nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - 5
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - 4
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, keymap.PageUp), key.Matches(msg, keymap.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case key.Matches(msg, keymap.Send):
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			return m.submit(content)
		}

	case eventMsg:
		m.handleEvent(msg.ev)
		m.refresh()
		return m, listen(msg.ch)

	case closedMsg:
		if msg.ch == m.turn {
			m.turn = nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles a line typed by the user
func (m Model) submit(content string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(content, "/") {
		return m.command(content)
	}
	if m.Busy() {
		m.notice(m.th.ErrorStyle.Render("✗ " + agent.ErrTurnInProgress.Error()))
		return m, nil
	}

	m.entries = append(m.entries, entry{text: m.th.UserStyle.Render("You: ") + content})
	stream := m.backend.SendMessageStream(m.ctx, agent.SendMessageOptions{
		ConversationID: m.conv.ID,
		Content:        content,
	})
	m.turn = stream.Events
	m.refresh()
	return m, listen(stream.Events)
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/buy":
		opts, err := m.parseBuy(fields[1:])
		if err != nil {
			m.notice(m.th.ErrorStyle.Render("✗ " + err.Error()))
			return m, nil
		}
		stream, err := m.backend.ConfirmPurchase(m.ctx, opts)
		if err != nil {
			m.notice(m.th.ErrorStyle.Render("✗ " + err.Error()))
			return m, nil
		}
		m.refresh()
		return m, listen(stream.Events)
	case "/help":
		m.notice(m.th.MutedStyle.Render("/buy SYMBOL AMOUNT confirms a purchase shown in a purchase card"))
		return m, nil
	default:
		m.notice(m.th.ErrorStyle.Render(fmt.Sprintf("✗ unknown command %s", fields[0])))
		return m, nil
	}
}

// parseBuy reads "/buy SYMBOL [AMOUNT]". The price comes from the latest
// purchase card shown for the symbol.
func (m Model) parseBuy(args []string) (agent.PurchaseOptions, error) {
	if len(args) == 0 || len(args) > 2 {
		return agent.PurchaseOptions{}, fmt.Errorf("usage: /buy SYMBOL [AMOUNT]")
	}
	symbol := strings.ToUpper(args[0])
	offer, ok := m.offers[symbol]
	if !ok {
		return agent.PurchaseOptions{}, fmt.Errorf("no purchase card shown for %s yet", symbol)
	}
	amount := offer.Amount
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return agent.PurchaseOptions{}, fmt.Errorf("invalid amount %q", args[1])
		}
		amount = n
	}
	return agent.PurchaseOptions{
		ConversationID: m.conv.ID,
		Symbol:         symbol,
		Price:          offer.Price,
		Amount:         amount,
	}, nil
}

func (m *Model) handleEvent(ev events.Event) {
	switch e := ev.(type) {
	case events.UIEvent:
		if _, seen := m.regions[e.Region]; !seen {
			m.entries = append(m.entries, entry{region: e.Region})
		}
		m.regions[e.Region] = e.Rendered
		if p, ok := e.View.(view.Purchase); ok {
			m.offers[p.Symbol] = p
		}
	case *events.ErrorEvent:
		m.entries = append(m.entries, entry{text: m.th.ErrorStyle.Render("✗ " + e.Error.Error())})
	}
}

func (m *Model) notice(text string) {
	m.entries = append(m.entries, entry{text: text})
	m.refresh()
}

func (m Model) renderTurn(t domain.Turn) string {
	switch t.Role {
	case domain.RoleUser:
		return m.th.UserStyle.Render("You: ") + t.Content
	case domain.RoleAssistant:
		return m.th.BotStyle.Render(t.Content)
	case domain.RoleSystem:
		return m.th.SystemStyle.Render(t.Content)
	case domain.RoleFunction:
		style := m.th.MutedStyle
		if t.IsError {
			style = m.th.ErrorStyle
		}
		return style.Render(fmt.Sprintf("%s %s", t.Name, t.Content))
	}
	return ""
}

// Transcript renders every entry, live regions included
func (m Model) Transcript() string {
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		if e.region == "" {
			parts = append(parts, e.text)
			continue
		}
		if r := m.regions[e.region]; r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.Transcript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	title := m.th.HeaderStyle.Render("agentx")
	if m.conv.Title != "" {
		title += m.th.MutedStyle.Render(" · " + m.conv.Title)
	}
	status := m.help.View(keymap)
	if m.Busy() {
		status = m.th.MutedStyle.Render("thinking… ") + status
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		m.th.InputStyle.Render(m.input.View()),
		m.th.FooterStyle.Render(status),
	)
}

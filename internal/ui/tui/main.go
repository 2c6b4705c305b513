// Package tui is the interactive chat: a scrolling transcript of UI regions
// above a single-line input.
package tui

import (
	"context"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/ledger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Backend is the part of the agent the chat talks to
type Backend interface {
	SendMessageStream(ctx context.Context, opts agent.SendMessageOptions) agent.AgentStream
	ConfirmPurchase(ctx context.Context, opts agent.PurchaseOptions) (agent.AgentStream, error)
	Snapshot(ctx context.Context, id uuid.UUID) (ledger.Snapshot, error)
}

// Start runs the chat until the user quits
func Start(ctx context.Context, backend Backend, conv *domain.Conversation) error {
	snap, err := backend.Snapshot(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	m := New(ctx, backend, conv, snap.Turns)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat TUI: %w", err)
	}
	return nil
}

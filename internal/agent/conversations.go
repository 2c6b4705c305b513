package agent

import (
	"context"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/google/uuid"
)

func (a *Agent) NewConversation(ctx context.Context, title string) (*domain.Conversation, error) {
	conv := &domain.Conversation{Title: title}
	if err := a.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// ResolveConversation finds a conversation by (partial) ID. An empty ID picks
// the most recent conversation, creating one when there is none.
func (a *Agent) ResolveConversation(ctx context.Context, partialID string) (*domain.Conversation, error) {
	if partialID != "" {
		return a.conversations.FindByPartialID(ctx, partialID)
	}
	conv, err := a.conversations.GetMostRecent(ctx)
	if domain.IsNoConversationError(err) {
		return a.NewConversation(ctx, "")
	}
	return conv, err
}

func (a *Agent) ListConversations(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	return a.conversations.List(ctx, limit)
}

func (a *Agent) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	s, ok := a.sessions[id]
	a.mu.Unlock()
	if ok {
		if !s.busy.TryLock() {
			return ErrTurnInProgress
		}
		defer s.busy.Unlock()
	}

	if err := a.conversations.Delete(ctx, id); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
	return nil
}

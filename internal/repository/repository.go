package repository

import (
	"context"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/google/uuid"
)

// ConversationRepository persists conversations and their committed turns
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	FindByPartialID(ctx context.Context, partialID string) (*domain.Conversation, error)
	GetMostRecent(ctx context.Context) (*domain.Conversation, error)
	List(ctx context.Context, limit int) ([]*domain.Conversation, error)
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AppendTurns stores turns after the existing ones, numbering them in order
	AppendTurns(ctx context.Context, id uuid.UUID, turns []domain.Turn) error
	GetTurns(ctx context.Context, id uuid.UUID) ([]domain.Turn, error)
}

// HistoryRepository is the flat question/answer log
type HistoryRepository interface {
	Record(ctx context.Context, rec *domain.HistoryRecord) error
	// List returns the newest records first. A nil conversation lists all.
	List(ctx context.Context, conversationID *uuid.UUID, limit int) ([]domain.HistoryRecord, error)
}

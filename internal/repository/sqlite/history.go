package sqlite

import (
	"context"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Record(ctx context.Context, rec *domain.HistoryRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *historyRepo) List(ctx context.Context, conversationID *uuid.UUID, limit int) ([]domain.HistoryRecord, error) {
	var out []domain.HistoryRecord
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if conversationID != nil {
		q = q.Where("conversation_id = ?", *conversationID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/repository"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &conversationRepo{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NoConversationError{}
	}
	return err
}

func (r *conversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Turns", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

func (r *conversationRepo) FindByPartialID(ctx context.Context, partialID string) (*domain.Conversation, error) {
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).
		Where("LOWER(CAST(id AS TEXT)) LIKE ?", strings.ToLower(partialID)+"%").
		Limit(2).
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	switch len(convs) {
	case 0:
		return nil, domain.NoConversationError{}
	case 1:
		return &convs[0], nil
	default:
		return nil, pkgerrors.Errorf("conversation id %q is ambiguous", partialID)
	}
}

func (r *conversationRepo) GetMostRecent(ctx context.Context) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.db.WithContext(ctx).Order("updated_at DESC").First(&conv).Error; err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

func (r *conversationRepo) List(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	var convs []*domain.Conversation
	q := r.db.WithContext(ctx).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepo) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	res := r.db.WithContext(ctx).Model(&domain.Conversation{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NoConversationError{}
	}
	return nil
}

func (r *conversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&domain.Turn{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to delete turns")
		}
		res := tx.Where("id = ?", id).Delete(&domain.Conversation{})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "failed to delete conversation")
		}
		if res.RowsAffected == 0 {
			return domain.NoConversationError{}
		}
		return nil
	})
}

func (r *conversationRepo) AppendTurns(ctx context.Context, id uuid.UUID, turns []domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ Max *int }
		if err := tx.Model(&domain.Turn{}).
			Select("MAX(seq) AS max").
			Where("conversation_id = ?", id).
			Scan(&last).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to read last turn")
		}
		next := 0
		if last.Max != nil {
			next = *last.Max + 1
		}

		rows := make([]domain.Turn, len(turns))
		for i, t := range turns {
			t.ID = uuid.Nil
			t.ConversationID = id
			t.Seq = next + i
			rows[i] = t
		}
		if err := tx.Create(&rows).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to store turns")
		}
		return tx.Model(&domain.Conversation{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
	})
}

func (r *conversationRepo) GetTurns(ctx context.Context, id uuid.UUID) ([]domain.Turn, error) {
	var turns []domain.Turn
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", id).Order("seq ASC").Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

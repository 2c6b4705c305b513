package agent

import (
	"context"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/repository"
	"github.com/Ocada-ai-biz/agentx/internal/task"
	"github.com/google/uuid"
)

// HistoryRecorder writes question/answer records in the background. A failed
// write is logged by the supervisor and never reaches the turn.
type HistoryRecorder struct {
	repo  repository.HistoryRepository
	tasks *task.Supervisor
	now   func() time.Time
}

func NewHistoryRecorder(repo repository.HistoryRepository, tasks *task.Supervisor) *HistoryRecorder {
	return &HistoryRecorder{repo: repo, tasks: tasks, now: time.Now}
}

func (h *HistoryRecorder) Record(conversationID, question, answer, kind string) {
	if h == nil || h.repo == nil {
		return
	}
	id, err := uuid.Parse(conversationID)
	if err != nil {
		id = uuid.Nil
	}
	rec := &domain.HistoryRecord{
		ConversationID: id,
		Question:       question,
		Answer:         answer,
		Kind:           kind,
		CreatedAt:      h.now(),
	}
	h.tasks.Go("record history", func(ctx context.Context) error {
		return h.repo.Record(ctx, rec)
	})
}

// List returns the newest records first, optionally for one conversation
func (h *HistoryRecorder) List(ctx context.Context, conversationID *uuid.UUID, limit int) ([]domain.HistoryRecord, error) {
	return h.repo.List(ctx, conversationID, limit)
}

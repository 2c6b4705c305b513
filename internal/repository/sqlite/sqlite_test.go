package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := store.Conversations

	conv := &domain.Conversation{Title: "prices"}
	require.NoError(t, repo.Create(ctx, conv))
	require.NotEqual(t, uuid.Nil, conv.ID)

	require.NoError(t, repo.AppendTurns(ctx, conv.ID, []domain.Turn{
		{Role: domain.RoleUser, Content: "price of SOL?"},
		{Role: domain.RoleFunction, Name: "show_stock_price", Content: "[Price of SOL = 150]"},
	}))
	require.NoError(t, repo.AppendTurns(ctx, conv.ID, []domain.Turn{
		{Role: domain.RoleAssistant, Content: "done"},
	}))

	turns, err := repo.GetTurns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	for i, turn := range turns {
		assert.Equal(t, i, turn.Seq)
		assert.Equal(t, conv.ID, turn.ConversationID)
	}
	assert.Equal(t, "show_stock_price", turns[1].Name)
	assert.Equal(t, "done", turns[2].Content)

	got, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "prices", got.Title)
	assert.Len(t, got.Turns, 3)

	require.NoError(t, repo.SetTitle(ctx, conv.ID, "renamed"))
	got, err = repo.FindByPartialID(ctx, conv.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	require.NoError(t, repo.Delete(ctx, conv.ID))
	_, err = repo.GetByID(ctx, conv.ID)
	assert.True(t, domain.IsNoConversationError(err))
	turns, err = repo.GetTurns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestConversationNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Conversations

	_, err := repo.GetMostRecent(ctx)
	assert.True(t, domain.IsNoConversationError(err))

	_, err = repo.FindByPartialID(ctx, "abc")
	assert.True(t, domain.IsNoConversationError(err))

	assert.True(t, domain.IsNoConversationError(repo.SetTitle(ctx, uuid.New(), "x")))
	assert.True(t, domain.IsNoConversationError(repo.Delete(ctx, uuid.New())))
}

func TestListOrdersByActivity(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Conversations

	first := &domain.Conversation{Title: "first"}
	second := &domain.Conversation{Title: "second"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.AppendTurns(ctx, first.ID, []domain.Turn{{Role: domain.RoleUser, Content: "hi"}}))

	convs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.ID, convs[0].ID)

	recent, err := repo.GetMostRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, recent.ID)

	convs, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestHistoryRecordAndList(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).History

	a, b := uuid.New(), uuid.New()
	require.NoError(t, repo.Record(ctx, &domain.HistoryRecord{ConversationID: a, Question: "q1", Answer: "a1", Kind: "text"}))
	require.NoError(t, repo.Record(ctx, &domain.HistoryRecord{ConversationID: a, Question: "q2", Answer: "a2", Kind: "show_stock_price"}))
	require.NoError(t, repo.Record(ctx, &domain.HistoryRecord{ConversationID: b, Question: "q3", Answer: "a3", Kind: "text"}))

	all, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "q3", all[0].Question)

	onlyA, err := repo.List(ctx, &a, 0)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "show_stock_price", onlyA[0].Kind)

	limited, err := repo.List(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

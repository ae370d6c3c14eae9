package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/internal/infra/postgres"
)

// Интеграционный тест: нужен TEST_DATABASE_URL со схемой бота.
func TestStore_TaskRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })
	s := postgres.NewStore(tx)

	due := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	id, err := s.CreateTask(ctx, domain.Task{
		Title: "Call", Due: &due, Status: domain.StatusInProgress, AssignerID: -1, AssigneeID: -1,
	})
	require.NoError(t, err)

	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Call", got.Title)

	upd := domain.TaskUpdate{Status: domain.StatusPendingReview, Result: "done", UpdatedAt: due}
	require.NoError(t, s.UpdateTask(ctx, id, upd))

	list, err := s.ListTasksByAssignee(ctx, -1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusPendingReview, list[0].Status)
}

package outbox

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupSQLiteOutbox(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return NewSQLiteRepository(db), db
}

func newSQLiteTestMessage(t *testing.T, data string) *Message {
	t.Helper()
	msg, err := NewMessage(newScoredEvent(uuid.New(), data))
	require.NoError(t, err)
	return msg
}

func TestSQLiteRepository_SaveAndGetUnpublished(t *testing.T) {
	repo, _ := setupSQLiteOutbox(t)
	ctx := context.Background()

	first := newSQLiteTestMessage(t, "one")
	second := newSQLiteTestMessage(t, "two")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.SaveBatch(ctx, []*Message{second}))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.EventID, msgs[0].EventID)
	assert.Equal(t, first.AggregateID, msgs[0].AggregateID)
	assert.JSONEq(t, string(first.Payload), string(msgs[0].Payload))
	assert.Equal(t, "prioritization.task.scored", msgs[0].RoutingKey)

	require.NoError(t, repo.MarkPublished(ctx, first.ID))
	msgs, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, second.ID, msgs[0].ID)
}

func TestSQLiteRepository_FailureLifecycle(t *testing.T) {
	repo, _ := setupSQLiteOutbox(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	msg := newSQLiteTestMessage(t, "retry")
	require.NoError(t, repo.Save(ctx, msg))

	require.NoError(t, repo.MarkFailed(ctx, msg.ID, "broker down", base.Add(time.Minute)))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "message waits for its retry time")

	repo.now = func() time.Time { return base.Add(2 * time.Minute) }
	failed, err := repo.GetFailed(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].RetryCount)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "broker down", *failed[0].LastError)

	require.NoError(t, repo.MarkDead(ctx, msg.ID, "max retries"))
	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSQLiteRepository_SaveBatchUsesContextTransaction(t *testing.T) {
	repo, db := setupSQLiteOutbox(t)
	ctx := context.Background()

	uow := sharedPersistence.NewSQLiteUnitOfWork(db)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.SaveBatch(txCtx, []*Message{newSQLiteTestMessage(t, "rolled back")}))
	require.NoError(t, uow.Rollback(txCtx))

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteRepository_DeleteOld(t *testing.T) {
	repo, _ := setupSQLiteOutbox(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	old := newSQLiteTestMessage(t, "old")
	fresh := newSQLiteTestMessage(t, "fresh")
	require.NoError(t, repo.SaveBatch(ctx, []*Message{old, fresh}))
	require.NoError(t, repo.MarkPublished(ctx, old.ID))

	repo.now = func() time.Time { return base.AddDate(0, 0, 10) }
	require.NoError(t, repo.MarkPublished(ctx, fresh.ID))

	deleted, err := repo.DeleteOld(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestInMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	msg := newSQLiteTestMessage(t, "mem")
	require.NoError(t, repo.SaveBatch(ctx, []*Message{msg}))
	assert.Len(t, repo.Messages(), 1)

	require.NoError(t, repo.MarkFailed(ctx, msg.ID, "boom", time.Now().Add(-time.Second)))
	failed, err := repo.GetFailed(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	require.NoError(t, repo.MarkPublished(ctx, msg.ID))
	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

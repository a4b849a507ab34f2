package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/infrastructure/cache"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalModeContainer(t *testing.T) (*Container, context.Context) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		LocalMode:         true,
		DatabaseDriver:    "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "prioritiai.db"),
		RecalcConcurrency: 4,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	container, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container, ctx
}

func localInput(id, description string) domain.TaskInput {
	return domain.TaskInput{
		ID:            id,
		Title:         "Payroll export failing",
		Description:   description,
		Category:      domain.CategorySupport,
		RequesterRole: domain.RoleManager,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
}

// TestLocalModeContainer tests that a local mode container is fully wired.
func TestLocalModeContainer(t *testing.T) {
	container, _ := setupLocalModeContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.RedisClient)
	assert.Nil(t, container.Refiner)
	assert.IsType(t, &cache.MemoryResultCache{}, container.ResultCache)

	assert.NotNil(t, container.ScoredTaskRepo)
	assert.NotNil(t, container.AuditRepo)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.UnitOfWork)
	assert.NotNil(t, container.Engine)

	assert.NotNil(t, container.ScoreTaskHandler)
	assert.NotNil(t, container.BatchScoreHandler)
	assert.NotNil(t, container.RecalculateHandler)
	assert.NotNil(t, container.LockTaskHandler)
	assert.NotNil(t, container.UnlockTaskHandler)
	assert.NotNil(t, container.OverrideTaskHandler)
	assert.NotNil(t, container.GetPriorityResultHandler)
	assert.NotNil(t, container.ListScoredTasksHandler)
	assert.NotNil(t, container.ListPrivacyAuditHandler)
	assert.NotNil(t, container.IntakeSubscriber)

	health := container.Health.GetOverallHealth(context.Background())
	assert.Contains(t, health.Checks, "database")
}

// TestLocalModeScoringWorkflow scores, locks and recalculates against SQLite.
func TestLocalModeScoringWorkflow(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	first, err := container.ScoreTaskHandler.Handle(ctx, commands.ScoreTaskCommand{
		Input: localInput("T-1", "The export job fails for every manager since this morning"),
		Actor: "tester",
	})
	require.NoError(t, err)
	assert.False(t, first.Locked)
	assert.Equal(t, 1, first.ScoreCount)

	_, err = container.ScoreTaskHandler.Handle(ctx, commands.ScoreTaskCommand{
		Input: localInput("T-2", "Employee SSN 123-45-6789 shows up in the export"),
	})
	require.NoError(t, err)

	status, err := container.GetPriorityResultHandler.Handle(ctx, queries.GetPriorityResultQuery{RequestID: "T-1"})
	require.NoError(t, err)
	assert.True(t, status.FromCache)
	assert.Equal(t, "T-1", status.Result.RequestID)

	audit, err := container.ListPrivacyAuditHandler.Handle(ctx, queries.ListPrivacyAuditQuery{})
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "T-2", audit[0].RequestID)

	require.NoError(t, container.LockTaskHandler.Handle(ctx, commands.LockTaskCommand{
		TaskID: "T-2",
		Reason: "under review",
		Actor:  "tester",
	}))

	recalc, err := container.RecalculateHandler.Handle(ctx, commands.RecalculatePrioritiesCommand{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, recalc.Scanned)
	assert.Equal(t, 1, recalc.UpdatedCount)

	locked, err := container.ListScoredTasksHandler.Handle(ctx, queries.ListScoredTasksQuery{Locked: "true"})
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, "T-2", locked[0].TaskID)

	task, err := container.GetScoredTaskHandler.Handle(ctx, queries.GetScoredTaskQuery{TaskID: "T-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, task.ScoreCount)

	pending, err := container.OutboxRepo.GetUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, pending)
}

func TestNewRepositories_UnsupportedDriver(t *testing.T) {
	_, err := NewRepositories(fakeConnection{driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported driver: oracle")
}

func TestNewRepositories_ConnectionWithoutHandle(t *testing.T) {
	_, err := NewRepositories(fakeConnection{driver: database.DriverSQLite})
	assert.ErrorContains(t, err, "does not expose a SQL handle")

	_, err = NewRepositories(fakeConnection{driver: database.DriverPostgres})
	assert.ErrorContains(t, err, "does not expose a pgx pool")
}

type fakeConnection struct {
	database.Connection
	driver database.Driver
}

func (f fakeConnection) Driver() database.Driver { return f.driver }

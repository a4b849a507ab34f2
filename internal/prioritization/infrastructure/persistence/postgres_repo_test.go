package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Failed to ping test database: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	_, _ = pool.Exec(ctx, "DELETE FROM scored_tasks")
	_, _ = pool.Exec(ctx, "DELETE FROM privacy_audit_log")
	return pool
}

func TestPostgresScoredTaskRepository(t *testing.T) {
	pool := setupPostgresTestDB(t)
	repo := NewPostgresScoredTaskRepository(pool)
	ctx := context.Background()

	task := newTestTask("pg-1", domain.CategorySecurity, domain.RoleCTO, 7.1, domain.UrgencyHigh)
	require.NoError(t, repo.Save(ctx, task))

	found, err := repo.FindByID(ctx, "pg-1")
	require.NoError(t, err)
	assert.Equal(t, 7.1, found.Result().PriorityMetrics.FinalPriorityScore)

	stale, err := repo.FindByID(ctx, "pg-1")
	require.NoError(t, err)

	found.Lock("hold", "dave")
	require.NoError(t, repo.Save(ctx, found))
	stale.Lock("other", "erin")
	assert.ErrorIs(t, repo.Save(ctx, stale), domain.ErrConcurrentUpdate)

	locked := true
	list, err := repo.List(ctx, domain.ListFilter{Locked: &locked, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"pg-1"}, taskIDs(list))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestPostgresPrivacyAuditRepository(t *testing.T) {
	pool := setupPostgresTestDB(t)
	repo := NewPostgresPrivacyAuditRepository(pool)
	ctx := context.Background()

	entry := &domain.PrivacyAuditEntry{RequestID: "pg-r1", Categories: []string{"ssn"}}
	require.NoError(t, repo.Record(ctx, entry))
	assert.NotZero(t, entry.ID)

	entries, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, []string{"ssn"}, entries[0].Categories)
}

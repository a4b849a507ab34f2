package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPrivacyAuditRepository implements domain.PrivacyAuditRepository using PostgreSQL.
type PostgresPrivacyAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPrivacyAuditRepository creates a new PostgreSQL privacy audit repository.
func NewPostgresPrivacyAuditRepository(pool *pgxpool.Pool) *PostgresPrivacyAuditRepository {
	return &PostgresPrivacyAuditRepository{pool: pool}
}

// Record appends an entry and assigns its ID.
func (r *PostgresPrivacyAuditRepository) Record(ctx context.Context, entry *domain.PrivacyAuditEntry) error {
	if entry.DetectedAt.IsZero() {
		entry.DetectedAt = time.Now().UTC()
	}
	categories := entry.Categories
	if categories == nil {
		categories = []string{}
	}

	exec := sharedPersistence.Executor(ctx, r.pool)
	return exec.QueryRow(ctx,
		`INSERT INTO privacy_audit_log (request_id, categories, detected_at) VALUES ($1, $2, $3) RETURNING id`,
		entry.RequestID, categories, entry.DetectedAt,
	).Scan(&entry.ID)
}

// ListRecent returns the newest entries first.
func (r *PostgresPrivacyAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.PrivacyAuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, categories, detected_at
		FROM privacy_audit_log
		ORDER BY detected_at DESC, id DESC
		LIMIT $1
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PrivacyAuditEntry
	for rows.Next() {
		var entry domain.PrivacyAuditEntry
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.Categories, &entry.DetectedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

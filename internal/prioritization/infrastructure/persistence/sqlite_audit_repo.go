package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
)

// SQLitePrivacyAuditRepository implements domain.PrivacyAuditRepository using SQLite.
// Categories are stored comma-separated; category names never contain commas.
type SQLitePrivacyAuditRepository struct {
	db *sql.DB
}

// NewSQLitePrivacyAuditRepository creates a new SQLite privacy audit repository.
func NewSQLitePrivacyAuditRepository(db *sql.DB) *SQLitePrivacyAuditRepository {
	return &SQLitePrivacyAuditRepository{db: db}
}

// Record appends an entry and assigns its ID.
func (r *SQLitePrivacyAuditRepository) Record(ctx context.Context, entry *domain.PrivacyAuditEntry) error {
	if entry.DetectedAt.IsZero() {
		entry.DetectedAt = time.Now().UTC()
	}

	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx,
		`INSERT INTO privacy_audit_log (request_id, categories, detected_at) VALUES (?, ?, ?)`,
		entry.RequestID,
		strings.Join(entry.Categories, ","),
		sharedPersistence.FormatSQLiteTime(entry.DetectedAt),
	)
	if err != nil {
		return err
	}

	entry.ID, err = res.LastInsertId()
	return err
}

// ListRecent returns the newest entries first.
func (r *SQLitePrivacyAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.PrivacyAuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, categories, detected_at
		FROM privacy_audit_log
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PrivacyAuditEntry
	for rows.Next() {
		var (
			entry      domain.PrivacyAuditEntry
			categories string
			detectedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &categories, &detectedAt); err != nil {
			return nil, err
		}
		if categories != "" {
			entry.Categories = strings.Split(categories, ",")
		}
		if entry.DetectedAt, err = sharedPersistence.ParseSQLiteTime(detectedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

package outbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const (
	sqliteOutboxInsert = `INSERT INTO outbox (
	event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, next_retry_at, retry_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`

	sqliteOutboxSelect = `SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason
FROM outbox
WHERE published_at IS NULL
	AND dead_lettered_at IS NULL
	AND (next_retry_at IS NULL OR next_retry_at <= ?)`
)

// SQLiteRepository is the outbox for local mode. Timestamps are stored as
// fixed-width UTC text so comparisons in SQL stay chronological.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	return r.SaveBatch(ctx, []*Message{msg})
}

// SaveBatch inserts through one prepared statement, inside the unit of work
// on ctx or a transaction of its own.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if tx, ok := sharedPersistence.SQLiteTx(ctx); ok {
		return r.insertAll(ctx, tx, msgs)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.insertAll(ctx, tx, msgs); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func (r *SQLiteRepository) insertAll(ctx context.Context, tx *sql.Tx, msgs []*Message) error {
	stmt, err := tx.PrepareContext(ctx, sqliteOutboxInsert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = r.now().UTC()
		}
		var metadata sql.NullString
		if len(msg.Metadata) > 0 {
			metadata = sql.NullString{String: string(msg.Metadata), Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			msg.EventID.String(), msg.AggregateType, msg.AggregateID.String(),
			msg.EventType, msg.RoutingKey, string(msg.Payload), metadata,
			sharedPersistence.FormatSQLiteTime(msg.CreatedAt),
			sharedPersistence.FormatSQLiteTimePtr(msg.NextRetryAt),
		)
		if err != nil {
			return err
		}
		if msg.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	return r.query(ctx, sqliteOutboxSelect+` ORDER BY created_at, id LIMIT ?`,
		r.stamp(), limit)
}

func (r *SQLiteRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	return r.query(ctx, sqliteOutboxSelect+` AND retry_count > 0 AND retry_count < ? ORDER BY created_at, id LIMIT ?`,
		r.stamp(), maxRetries, limit)
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`,
		r.stamp(), id)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		errMsg, sharedPersistence.FormatSQLiteTime(nextRetryAt), id)
}

func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.exec(ctx, `UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		r.stamp(), reason, id)
}

func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := sharedPersistence.FormatSQLiteTime(r.now().AddDate(0, 0, -olderThanDays))
	res, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) stamp() string {
	return sharedPersistence.FormatSQLiteTime(r.now())
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func scanSQLiteMessage(rows *sql.Rows) (*Message, error) {
	var (
		msg                                  Message
		eventID, aggregateID, payload, since string
		metadata, lastError, deadReason      sql.NullString
		publishedAt, nextRetryAt, deadAt     sql.NullString
	)
	if err := rows.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &since, &publishedAt, &nextRetryAt, &msg.RetryCount,
		&lastError, &deadAt, &deadReason,
	); err != nil {
		return nil, err
	}

	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, err
	}
	if msg.CreatedAt, err = sharedPersistence.ParseSQLiteTime(since); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		src sql.NullString
		dst **time.Time
	}{
		{publishedAt, &msg.PublishedAt},
		{nextRetryAt, &msg.NextRetryAt},
		{deadAt, &msg.DeadLetteredAt},
	} {
		if *col.dst, err = sharedPersistence.ParseSQLiteTimePtr(col.src); err != nil {
			return nil, err
		}
	}

	msg.Payload = []byte(payload)
	if metadata.Valid {
		msg.Metadata = []byte(metadata.String)
	}
	msg.LastError = nullStringPtr(lastError)
	msg.DeadLetterReason = nullStringPtr(deadReason)
	return &msg, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

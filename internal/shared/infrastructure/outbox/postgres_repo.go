package outbox

import (
	"context"
	"time"

	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgOutboxColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

	pgOutboxInsert = `INSERT INTO outbox (
	event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, next_retry_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

	// pgOutboxDue selects rows that are neither delivered nor parked and
	// whose backoff has elapsed.
	pgOutboxDue = `published_at IS NULL
	AND dead_lettered_at IS NULL
	AND (next_retry_at IS NULL OR next_retry_at <= now())`
)

// PostgresRepository is the outbox over pgx. Inserts join the unit of work
// found on the context.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	return r.SaveBatch(ctx, []*Message{msg})
}

// SaveBatch pipelines the inserts in one round trip. Outside a unit of work
// it opens its own transaction so the batch stays all-or-nothing.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if tx, ok := sharedPersistence.PostgresTx(ctx); ok {
		return queueInserts(ctx, tx, msgs)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return queueInserts(ctx, tx, msgs)
	})
}

func queueInserts(ctx context.Context, exec sharedPersistence.DBExecutor, msgs []*Message) error {
	batch := &pgx.Batch{}
	for _, msg := range msgs {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		batch.Queue(pgOutboxInsert,
			msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.RoutingKey,
			msg.Payload, msg.Metadata, msg.CreatedAt, msg.NextRetryAt,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&msg.ID)
		})
	}
	return exec.SendBatch(ctx, batch).Close()
}

func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	return r.query(ctx,
		`SELECT `+pgOutboxColumns+` FROM outbox WHERE `+pgOutboxDue+` ORDER BY created_at, id LIMIT $1`,
		limit)
}

func (r *PostgresRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	return r.query(ctx,
		`SELECT `+pgOutboxColumns+` FROM outbox WHERE `+pgOutboxDue+`
	AND retry_count > 0 AND retry_count < $1
ORDER BY created_at, id LIMIT $2`,
		maxRetries, limit)
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox SET published_at = now(), dead_lettered_at = NULL WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3 WHERE id = $1`,
		id, errMsg, nextRetryAt)
	return err
}

func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox SET dead_lettered_at = now(), dead_letter_reason = $2 WHERE id = $1`,
		id, reason)
	return err
}

func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM outbox WHERE published_at < now() - make_interval(days => $1)`,
		olderThanDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Message])
}

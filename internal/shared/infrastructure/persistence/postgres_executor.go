package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBExecutor is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresTx returns the transaction opened by a unit of work, if any.
func PostgresTx(ctx context.Context) (pgx.Tx, bool) {
	s, ok := scopeFrom[pgx.Tx](ctx)
	if !ok || s.tx == nil {
		return nil, false
	}
	return s.tx, true
}

// Executor returns the context's transaction, otherwise the pool.
func Executor(ctx context.Context, pool *pgxpool.Pool) DBExecutor {
	if tx, ok := PostgresTx(ctx); ok {
		return tx
	}
	return pool
}

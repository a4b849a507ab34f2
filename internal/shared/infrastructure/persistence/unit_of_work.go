// Package persistence carries transactions through the context so that a
// scored task, its audit entry and its outbox events commit together.
package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type scopeKey[T any] struct{}

// scope is the transaction a unit of work placed in the context. Only the
// unit that opened it commits or rolls back.
type scope[T any] struct {
	tx    T
	owned bool
}

func withScope[T any](ctx context.Context, tx T, owned bool) context.Context {
	return context.WithValue(ctx, scopeKey[T]{}, scope[T]{tx: tx, owned: owned})
}

func scopeFrom[T any](ctx context.Context) (scope[T], bool) {
	s, ok := ctx.Value(scopeKey[T]{}).(scope[T])
	return s, ok
}

// TxUnitOfWork implements application.UnitOfWork over a driver transaction.
// Begin inside an active scope joins it.
type TxUnitOfWork[T any] struct {
	begin    func(ctx context.Context) (T, error)
	commit   func(ctx context.Context, tx T) error
	rollback func(ctx context.Context, tx T) error
}

func (u *TxUnitOfWork[T]) Begin(ctx context.Context) (context.Context, error) {
	if s, ok := scopeFrom[T](ctx); ok {
		return withScope(ctx, s.tx, false), nil
	}
	tx, err := u.begin(ctx)
	if err != nil {
		return nil, err
	}
	return withScope(ctx, tx, true), nil
}

func (u *TxUnitOfWork[T]) Commit(ctx context.Context) error {
	s, ok := scopeFrom[T](ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owned {
		return nil
	}
	return u.commit(ctx, s.tx)
}

func (u *TxUnitOfWork[T]) Rollback(ctx context.Context) error {
	s, ok := scopeFrom[T](ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owned {
		return nil
	}
	return u.rollback(ctx, s.tx)
}

// NewPostgresUnitOfWork opens pgx transactions on pool.
func NewPostgresUnitOfWork(pool *pgxpool.Pool) *TxUnitOfWork[pgx.Tx] {
	return &TxUnitOfWork[pgx.Tx]{
		begin:    func(ctx context.Context) (pgx.Tx, error) { return pool.Begin(ctx) },
		commit:   func(ctx context.Context, tx pgx.Tx) error { return tx.Commit(ctx) },
		rollback: func(ctx context.Context, tx pgx.Tx) error { return tx.Rollback(ctx) },
	}
}

// NewSQLiteUnitOfWork opens database/sql transactions on db.
func NewSQLiteUnitOfWork(db *sql.DB) *TxUnitOfWork[*sql.Tx] {
	return &TxUnitOfWork[*sql.Tx]{
		begin:    func(ctx context.Context) (*sql.Tx, error) { return db.BeginTx(ctx, nil) },
		commit:   func(_ context.Context, tx *sql.Tx) error { return tx.Commit() },
		rollback: func(_ context.Context, tx *sql.Tx) error { return tx.Rollback() },
	}
}

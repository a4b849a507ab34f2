package persistence

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteTimeFormat is the fixed-width UTC layout used for TEXT timestamp columns.
// Fixed width keeps lexical order equal to chronological order.
const SQLiteTimeFormat = "2006-01-02T15:04:05.000000Z"

// SQLiteDBExecutor abstracts *sql.DB and *sql.Tx for shared query execution.
type SQLiteDBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteTx returns the transaction opened by a unit of work, if any.
func SQLiteTx(ctx context.Context) (*sql.Tx, bool) {
	s, ok := scopeFrom[*sql.Tx](ctx)
	if !ok || s.tx == nil {
		return nil, false
	}
	return s.tx, true
}

// SQLiteExecutor returns the context's transaction, otherwise db.
func SQLiteExecutor(ctx context.Context, db *sql.DB) SQLiteDBExecutor {
	if tx, ok := SQLiteTx(ctx); ok {
		return tx
	}
	return db
}

// FormatSQLiteTime renders t for storage.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeFormat)
}

// FormatSQLiteTimePtr renders an optional time, returning nil for nil.
func FormatSQLiteTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatSQLiteTime(*t)
	return &s
}

// ParseSQLiteTime parses a stored timestamp. RFC3339 values are accepted too.
func ParseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.Parse(SQLiteTimeFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ParseSQLiteTimePtr parses an optional stored timestamp.
func ParseSQLiteTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseSQLiteTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

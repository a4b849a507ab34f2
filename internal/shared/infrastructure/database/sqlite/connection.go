// Package sqlite opens the embedded store used in local mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database"
)

// pragmas applied to every connection. One writer at a time, so callers
// wait on the lock for up to five seconds instead of failing.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

func init() {
	database.Register(database.DriverSQLite, Open)
}

// Connection is a single-writer SQLite handle.
type Connection struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite file named by cfg.SQLitePath.
func Open(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if err := database.EnsureDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return &Connection{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + sep + strings.Join(params, "&")
}

// DB returns the underlying handle for repositories and migrations.
func (c *Connection) DB() *sql.DB { return c.db }

func (c *Connection) Driver() database.Driver { return database.DriverSQLite }

func (c *Connection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Connection) Close() error { return c.db.Close() }

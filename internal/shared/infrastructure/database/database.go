// Package database opens the store that backs scored tasks, the privacy
// audit log and the outbox. PostgreSQL serves deployments; an embedded
// SQLite file serves local mode.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// DetectDriver infers the backend from a connection string. An empty URL
// selects SQLite so the CLI works without configuration.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(url, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}

// Config selects and configures the backend.
type Config struct {
	// Driver is detected from URL when empty or "auto".
	Driver Driver
	URL    string

	// SQLitePath defaults to DefaultSQLitePath().
	SQLitePath string

	// MaxConns caps the PostgreSQL pool. Zero keeps the pgx default.
	MaxConns int
}

// Connection is an open store. Repositories reach the native handle through
// SQLiteDB or PostgresPool.
type Connection interface {
	Driver() Driver
	Ping(ctx context.Context) error
	Close() error
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// Register installs the opener for a driver. The driver packages call it
// from init, so importing them for side effects enables the backend.
func Register(driver Driver, open Opener) {
	openers[driver] = open
}

// NewConnection opens the configured backend.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return open(ctx, cfg)
}

// SQLiteDB returns the *sql.DB behind a SQLite connection.
func SQLiteDB(conn Connection) (*sql.DB, error) {
	c, ok := conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("%s connection does not expose a SQL handle", conn.Driver())
	}
	return c.DB(), nil
}

// PostgresPool returns the pool behind a PostgreSQL connection.
func PostgresPool(conn Connection) (*pgxpool.Pool, error) {
	c, ok := conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("%s connection does not expose a pgx pool", conn.Driver())
	}
	return c.Pool(), nil
}

// DefaultSQLitePath is ~/.prioritiai/prioritiai.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".prioritiai", "prioritiai.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

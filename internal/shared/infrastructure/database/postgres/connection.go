// Package postgres opens the pgx pool used by server deployments.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database"
)

func init() {
	database.Register(database.DriverPostgres, Open)
}

// Connection wraps a pgx pool.
type Connection struct {
	pool *pgxpool.Pool
}

// Open creates a pool for cfg.URL.
func Open(ctx context.Context, cfg database.Config) (database.Connection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(min(cfg.MaxConns, 1<<15)) // #nosec G115 - bounded above
	}
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &Connection{pool: pool}, nil
}

// Pool returns the pool for repositories, the unit of work and migrations.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

func (c *Connection) Driver() database.Driver { return database.DriverPostgres }

func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

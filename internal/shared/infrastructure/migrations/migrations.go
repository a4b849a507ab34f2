// Package migrations embeds the schema for both storage drivers and applies it
// in file order. Every statement is idempotent, so running twice is harmless.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return apply(sqliteFS, "sqlite", func(name, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// RunPostgresMigrations executes all PostgreSQL migrations in order.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return apply(postgresFS, "postgres", func(name, stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// UpFiles lists the up migrations for a driver directory, sorted.
func UpFiles(driver string) ([]string, error) {
	fsys, err := driverFS(driver)
	if err != nil {
		return nil, err
	}
	return upFiles(fsys, driver)
}

func driverFS(driver string) (embed.FS, error) {
	switch driver {
	case "sqlite":
		return sqliteFS, nil
	case "postgres":
		return postgresFS, nil
	default:
		return embed.FS{}, fmt.Errorf("no migrations for driver %q", driver)
	}
}

func upFiles(fsys fs.ReadDirFS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func apply(fsys embed.FS, dir string, exec func(name, stmt string) error) error {
	files, err := upFiles(fsys, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		migration, err := fsys.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := exec(file, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}

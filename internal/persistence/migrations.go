package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies each embedded migration not yet recorded in
// schema_migrations, one transaction per file, in name order.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool, skipping migrations")
		return nil
	}
	if _, err := pool.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := MigrationNames()
	if err != nil {
		return err
	}
	applied := 0
	for _, name := range names {
		ran, err := applyMigration(ctx, pool, name)
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if ran {
			applied++
			logger.Info("migration applied", zap.String("file", name))
		}
	}
	logger.Info("schema up to date", zap.Int("applied", applied), zap.Int("total", len(names)))
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	sql, err := fs.ReadFile(migrationFiles, "migrations/"+name)
	if err != nil {
		return false, err
	}
	ran := false
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var done bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&done); err != nil {
			return err
		}
		if done {
			return nil
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
		ran = err == nil
		return err
	})
	return ran, err
}

// MigrationNames lists the embedded migrations in apply order.
func MigrationNames() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = n[len("migrations/"):]
	}
	sort.Strings(names)
	return names, nil
}

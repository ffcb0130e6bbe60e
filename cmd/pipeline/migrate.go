package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-ops/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func migrate(c *cli.Context) error {
	cfg := config.Load()
	db, err := sql.Open("pgx", postgres.DSN(&cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return runMigrations(c.Context, db, c.String("migrations-dir"))
}

// migrationFiles lists the .sql files of dir in name order.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// runMigrations executes every migration in one transaction. Migrations are
// written to be idempotent.
func runMigrations(ctx context.Context, db *sql.DB, dir string) error {
	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, file := range files {
		body, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
		logger.Log.Info().Str("file", filepath.Base(file)).Msg("migration applied")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

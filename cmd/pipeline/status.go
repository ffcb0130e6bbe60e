package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-ops/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func statusFlags() []cli.Flag {
	return []cli.Flag{
		dateFlag(),
		&cli.Int64Flag{
			Name:  "id",
			Usage: "Show this run instead of the latest run for --date",
		},
		&cli.IntFlag{
			Name:  "days",
			Usage: "Window for the aggregate run statistics",
			Value: 30,
		},
	}
}

// showStatus logs a recorded run with its node jobs, plus aggregate stats.
func showStatus(c *cli.Context) error {
	cfg := config.Load()
	db, err := sql.Open("pgx", postgres.DSN(&cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := pipeline.NewRepository(db)
	ctx := c.Context

	var run *pipeline.PipelineRun
	if id := c.Int64("id"); id > 0 {
		run, err = repo.GetPipelineRun(ctx, id)
	} else {
		date, derr := parseDateFlag(c)
		if derr != nil {
			return derr
		}
		run, err = repo.GetLatestRunByDate(ctx, inventory.Name, date)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if run == nil {
		logger.Log.Info().Msg("no run recorded")
	} else {
		ev := logger.Log.Info().
			Int64("id", run.ID).
			Str("run_id", run.RunID).
			Str("status", string(run.Status)).
			Int("completed", run.CompletedNodes).
			Int("failed", run.FailedNodes).
			Int("rows", run.TotalRows)
		if run.ErrorMessage != "" {
			ev = ev.Str("error", run.ErrorMessage)
		}
		ev.Msg("run")

		jobs, err := repo.GetNodeJobsByRunID(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load node jobs: %w", err)
		}
		for _, job := range jobs {
			logger.Log.Info().
				Str("node", job.NodeName).
				Str("status", string(job.Status)).
				Int("rows", job.Rows).
				Str("error", job.ErrorMessage).
				Msg("node")
		}
	}

	since := time.Now().AddDate(0, 0, -c.Int("days"))
	stats, err := repo.GetPipelineStats(ctx, inventory.Name, since)
	if err != nil {
		return fmt.Errorf("failed to load run stats: %w", err)
	}
	logger.Log.Info().
		Int64("runs", stats.RunsProcessed).
		Int64("rows", stats.RowsProcessed).
		Int64("failed_runs", stats.ErrorCount).
		Int("days", c.Int("days")).
		Msg("run statistics")
	return nil
}

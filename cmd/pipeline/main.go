package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/service"
	"github.com/andresuchdata/inventory-ops/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func dateFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "date",
		Usage:   "Snapshot date (MM/DD/YYYY or YYYY-MM-DD); defaults to today",
		EnvVars: []string{"PIPELINE_DATE"},
	}
}

func rawDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "raw-dir",
		Usage:   "Replay vendor extracts from <raw-dir>/<source>.csv instead of calling the vendors",
		EnvVars: []string{"PIPELINE_RAW_DIR"},
	}
}

func useDBFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:    "db",
		Usage:   "Record runs and publish allocations to Postgres",
		EnvVars: []string{"PIPELINE_USE_DB"},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "pipeline",
		Usage: "Reconcile 3PL inventory into the final SKU table and daily time series",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "Write logs as JSON instead of console output",
				EnvVars: []string{"LOG_JSON"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg := config.Load()
			if c.Bool("json-logs") {
				logger.Configure(os.Stdout, true)
			}
			logger.SetLevel(cfg.App.LogLevel)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch vendor extracts, reconcile, and publish outputs",
				Flags:  []cli.Flag{dateFlag(), rawDirFlag(), useDBFlag()},
				Action: runPipeline,
			},
			{
				Name:   "fetch",
				Usage:  "Only fetch vendor extracts into the raw layer",
				Flags:  []cli.Flag{dateFlag()},
				Action: fetchRaw,
			},
			{
				Name:  "accumulate",
				Usage: "Append an existing final SKU table to the time series",
				Flags: []cli.Flag{
					dateFlag(),
					useDBFlag(),
					&cli.StringFlag{
						Name:  "export",
						Usage: "Final SKU table to read; defaults to <output-dir>/<MM-DD-YYYY>.csv",
					},
				},
				Action: accumulate,
			},
			{
				Name:  "restore",
				Usage: "Download archived outputs from object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "sub",
						Usage: "Sub-path under the archive prefix, e.g. a YYYYMMDD date",
					},
					&cli.StringFlag{
						Name:  "override",
						Usage: "Full object key or prefix to use instead of the configured prefix",
					},
					&cli.StringFlag{
						Name:  "ext",
						Usage: "Only restore objects with this extension",
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Destination directory",
						Value: "./data/restore",
					},
				},
				Action: restore,
			},
			{
				Name:   "status",
				Usage:  "Show the recorded run for a date and its node jobs",
				Flags:  statusFlags(),
				Action: showStatus,
			},
			{
				Name:  "migrate",
				Usage: "Apply SQL migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "migrations-dir",
						Usage:   "Directory containing SQL migrations",
						Value:   "./scripts/migrations",
						EnvVars: []string{"MIGRATIONS_DIR"},
					},
				},
				Action: migrate,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("pipeline command failed")
	}
}

func parseDateFlag(c *cli.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.String("date"))
	if raw == "" {
		return inventory.CalendarDate(time.Now()), nil
	}
	return inventory.ParseDate(raw)
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	date, err := parseDateFlag(c)
	if err != nil {
		return err
	}

	deps, cleanup, err := buildDeps(c.Context, cfg, depsOptions{
		rawDir: c.String("raw-dir"),
		useDB:  c.Bool("db"),
		sync:   true,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.NewRunService(deps)
	summary, err := svc.Run(c.Context, runOptions(cfg, date))
	if summary != nil {
		ev := logger.Log.Info().
			Str("run_id", summary.RunID).
			Str("date", summary.SnapshotDate.Format("2006-01-02")).
			Int("merged", summary.MergedRecords).
			Int("dropped_upcs", summary.DroppedUPCs).
			Int("rejected", summary.RejectedRows).
			Int("allocations", summary.Allocations).
			Int("oversold", summary.Oversold).
			Int("unresolved", summary.Unresolved)
		if summary.Alert != nil {
			ev = ev.Int("alert_difference", summary.Alert.Difference)
		}
		ev.Msg("run summary")
	}
	if err != nil {
		return fmt.Errorf("inventory run failed: %w", err)
	}
	return nil
}

func fetchRaw(c *cli.Context) error {
	cfg := config.Load()
	date, err := parseDateFlag(c)
	if err != nil {
		return err
	}

	deps, cleanup, err := buildDeps(c.Context, cfg, depsOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	layers := pipeline.NewLayerWriter(cfg.Pipeline.IntermediateDir, date, true)
	results, err := service.NewRunService(deps).FetchRaw(c.Context, layers)
	if err != nil {
		return err
	}
	for source, res := range results {
		ev := logger.Log.Info().Str("source", string(source)).Int("rows", res.Table.Len())
		if res.Err != nil {
			ev = logger.Log.Warn().Str("source", string(source)).Err(res.Err)
		}
		ev.Msg("fetched")
	}
	for _, path := range layers.Written() {
		logger.Log.Info().Str("path", path).Msg("raw extract written")
	}
	return nil
}

func accumulate(c *cli.Context) error {
	cfg := config.Load()
	date, err := parseDateFlag(c)
	if err != nil {
		return err
	}

	exportPath := c.String("export")
	if exportPath == "" {
		exportPath = filepath.Join(cfg.Pipeline.OutputDir, inventory.OutputName(date, ".csv"))
	}

	deps, cleanup, err := buildDeps(c.Context, cfg, depsOptions{useDB: c.Bool("db")})
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := service.NewRunService(deps).Accumulate(c.Context, date, exportPath, cfg.Pipeline.MaxDates, cfg.Pipeline.AlertThreshold)
	if err != nil {
		return err
	}
	logger.Log.Info().
		Int("rows", len(res.Series)).
		Int("dates", len(res.Totals)).
		Int("difference", res.Difference).
		Bool("alert", res.Alert != nil).
		Msg("accumulate finished")
	return nil
}

func restore(c *cli.Context) error {
	cfg := config.Load()
	archiver, err := newArchiver(cfg.Storage)
	if err != nil {
		return err
	}
	if archiver == nil {
		return fmt.Errorf("object storage is not configured (STORAGE_ENDPOINT)")
	}

	paths, err := archiver.Restore(c.Context, c.String("sub"), c.String("override"), c.String("ext"), c.String("dest"))
	if err != nil {
		return err
	}
	logger.Log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("archive restored")
	return nil
}

func runOptions(cfg *config.Config, date time.Time) service.RunOptions {
	return service.RunOptions{
		Date:             date,
		Warehouses:       warehousePriority(cfg.Pipeline),
		BergenWarehouses: bergenWarehouses(cfg.Pipeline),
		LAFacilityID:     cfg.Pipeline.LAFacilityID,
		MaxDates:         cfg.Pipeline.MaxDates,
		AlertThreshold:   cfg.Pipeline.AlertThreshold,
		IntermediateDir:  cfg.Pipeline.IntermediateDir,
		OutputDir:        cfg.Pipeline.OutputDir,
		PersistLayers:    cfg.Pipeline.PersistLayers,
		SpreadsheetID:    cfg.Google.SpreadsheetID,
		DisplayRange:     cfg.Google.DisplayRange,
	}
}

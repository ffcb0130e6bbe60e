package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/drive"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/notify"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/service"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/sheets"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/storage"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/timeseries"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/vendor"
	"github.com/andresuchdata/inventory-ops/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	gdrive "google.golang.org/api/drive/v3"
	gsheets "google.golang.org/api/sheets/v4"
)

type depsOptions struct {
	rawDir string
	useDB  bool
	// sync pulls reference tables from the Drive input folder first.
	sync bool
}

// buildDeps wires every configured collaborator. Unconfigured optional ones
// stay nil so the run skips their nodes. cleanup closes opened pools.
func buildDeps(ctx context.Context, cfg *config.Config, opts depsOptions) (service.RunDeps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (service.RunDeps, func(), error) {
		cleanup()
		return service.RunDeps{}, func() {}, err
	}

	deps := service.RunDeps{
		Fetchers:  newFetchers(cfg, opts.rawDir),
		Reference: service.NewDirReferenceLoader(cfg.Pipeline.ReferenceDir),
		Notifier:  notify.New(cfg.Slack.WebhookURL),
	}

	driveSvc, sheetsClient, err := newGoogleClients(ctx, cfg.Google)
	if err != nil {
		return fail(err)
	}
	if driveSvc != nil {
		if opts.sync && cfg.Google.InputFolderID != "" {
			if _, err := drive.NewDownloader(driveSvc).SyncReference(ctx, cfg.Google.InputFolderID, cfg.Pipeline.ReferenceDir); err != nil {
				logger.Log.Warn().Err(err).Msg("reference sync failed, using stored tables")
			}
		}
		if cfg.Google.OutputFolderID != "" {
			deps.Publisher = drive.NewPublisher(driveSvc, cfg.Google.OutputFolderID)
		}
	}
	if sheetsClient != nil {
		deps.Display = sheetsClient
	}

	archiver, err := newArchiver(cfg.Storage)
	if err != nil {
		return fail(err)
	}
	if archiver != nil {
		deps.Archiver = archiver
	}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Lock = cache.NewRunLock(client, time.Duration(cfg.Cache.LockTTLSeconds)*time.Second)
	}

	var db *postgres.DB
	if opts.useDB || cfg.Pipeline.TimeSeriesBackend == timeseries.BackendPostgres {
		db, err = postgres.NewDB(&cfg.Database)
		if err != nil {
			return fail(fmt.Errorf("connect database: %w", err))
		}
		closers = append(closers, func() { _ = db.Close() })
	}

	if opts.useDB {
		recorderDB, err := sql.Open("pgx", postgres.DSN(&cfg.Database))
		if err != nil {
			return fail(fmt.Errorf("failed to connect to database: %w", err))
		}
		closers = append(closers, func() { _ = recorderDB.Close() })
		deps.Recorder = pipeline.NewRepository(recorderDB)

		var dashboards cache.DashboardCache
		if cfg.Cache.Enabled {
			if dashboards, err = cache.NewDashboardCache(cfg.Cache); err != nil {
				logger.Log.Warn().Err(err).Msg("dashboard cache unavailable, published dates may be served stale")
			}
		}
		deps.Inventory = service.NewInventoryService(
			postgres.NewInventoryRepository(db),
			postgres.NewTimeSeriesRepository(db),
			dashboards,
		)
	}

	switch cfg.Pipeline.TimeSeriesBackend {
	case timeseries.BackendPostgres:
		deps.Series = timeseries.NewDBStore(postgres.NewTimeSeriesRepository(db))
	case timeseries.BackendSheets:
		if sheetsClient == nil || cfg.Google.SpreadsheetID == "" {
			return fail(errors.New("sheets time series backend needs GOOGLE_CREDENTIALS_FILE and GOOGLE_SPREADSHEET_ID"))
		}
		deps.Series = timeseries.NewSheetsStore(sheetsClient, cfg.Google.SpreadsheetID, cfg.Google.TimeSeriesSheet)
	case timeseries.BackendFile, "":
		deps.Series = timeseries.NewFileStore(cfg.Pipeline.TimeSeriesFile)
	default:
		return fail(fmt.Errorf("unknown time series backend %q", cfg.Pipeline.TimeSeriesBackend))
	}

	return deps, cleanup, nil
}

// newFetchers returns the vendor clients with credentials configured, or file
// replays when rawDir is set.
func newFetchers(cfg *config.Config, rawDir string) []vendor.Fetcher {
	if rawDir != "" {
		return []vendor.Fetcher{
			vendor.NewFileFetcher(domain.SourceBergen, filepath.Join(rawDir, string(domain.SourceBergen)+".csv")),
			vendor.NewFileFetcher(domain.SourceTPLCentral, filepath.Join(rawDir, string(domain.SourceTPLCentral)+".csv")),
			vendor.NewFileFetcher(domain.SourceThinkLogistics, filepath.Join(rawDir, string(domain.SourceThinkLogistics)+".csv")),
		}
	}

	v := cfg.Vendors
	timeout := time.Duration(v.TimeoutSeconds) * time.Second
	var fetchers []vendor.Fetcher
	if v.Bergen.Username != "" {
		fetchers = append(fetchers, vendor.NewBergenClient(v.Bergen.URL, v.Bergen.WebAddress, v.Bergen.Username, v.Bergen.Password, timeout))
	} else {
		logger.Log.Warn().Str("source", string(domain.SourceBergen)).Msg("no credentials, source skipped")
	}
	if v.TPLCentral.ClientID != "" {
		fetchers = append(fetchers, vendor.NewTPLCentralClient(v.TPLCentral.BaseURL, v.TPLCentral.ClientID, v.TPLCentral.ClientSecret, v.TPLCentral.UserLoginID, v.TPLCentral.PageSize, timeout))
	} else {
		logger.Log.Warn().Str("source", string(domain.SourceTPLCentral)).Msg("no credentials, source skipped")
	}
	if v.ThinkLogistics.Username != "" {
		tl := v.ThinkLogistics
		fetchers = append(fetchers, vendor.NewThinkLogisticsClient(tl.BaseURL, tl.Username, tl.Password, tl.CustomerID, tl.WarehouseCode, tl.PageSize, timeout))
	} else {
		logger.Log.Warn().Str("source", string(domain.SourceThinkLogistics)).Msg("no credentials, source skipped")
	}
	return fetchers
}

// newGoogleClients returns nil clients when no credentials file exists.
func newGoogleClients(ctx context.Context, cfg config.GoogleConfig) (*drive.Service, *sheets.Client, error) {
	credentials, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Log.Info().Str("path", cfg.CredentialsFile).Msg("no google credentials, drive and sheets disabled")
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read google credentials: %w", err)
	}

	httpClient, err := drive.NewHTTPClient(ctx, credentials, gdrive.DriveScope, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, nil, err
	}
	driveSvc, err := drive.NewService(ctx, httpClient)
	if err != nil {
		return nil, nil, err
	}
	sheetsClient, err := sheets.NewClient(ctx, httpClient)
	if err != nil {
		return nil, nil, err
	}
	return driveSvc, sheetsClient, nil
}

// newArchiver returns nil when no storage endpoint is configured.
func newArchiver(cfg config.StorageConfig) (*storage.Archiver, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := storage.NewS3Client(storage.S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewArchiver(client, cfg.Prefix), nil
}

func warehousePriority(cfg config.PipelineConfig) []domain.WarehouseID {
	return domain.ParseWarehousePriority(cfg.WarehousePriority)
}

func bergenWarehouses(cfg config.PipelineConfig) map[string]domain.WarehouseID {
	pairs := cfg.BergenWarehouseMap()
	if len(pairs) == 0 {
		return inventory.DefaultBergenWarehouses()
	}
	out := make(map[string]domain.WarehouseID, len(pairs))
	for name, code := range pairs {
		w, ok := domain.ParseWarehouseID(code)
		if !ok {
			logger.Log.Warn().Str("name", name).Str("code", code).Msg("unknown bergen warehouse code ignored")
			continue
		}
		out[name] = w
	}
	return out
}

package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/drive"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/notify"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/report"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/vendor"
	"github.com/rs/zerolog/log"
)

// Output nodes appended after the core inventory graph.
const (
	NodeWriteOutputs      = "write_outputs"
	NodeTimeSeriesReport  = "write_timeseries_report"
	NodeUpdateDisplay     = "update_display_sheet"
	NodePublishDrive      = "publish_drive"
	NodeArchiveOutputs    = "archive_outputs"
	NodePersistAllocation = "persist_allocation"
	NodeNotifyAlert       = "notify_alert"
)

const (
	mergedOutputName     = "merged_inventory.csv"
	timeSeriesReportName = "total_inventory.xlsx"
)

// ReferenceTables are the raw reference extracts a run joins against.
type ReferenceTables struct {
	Catalog dataset.Table
	Quota   dataset.Table
	Prices  dataset.Table
	Shopify dataset.Table
}

// ReferenceLoader supplies the reference tables for a run.
type ReferenceLoader interface {
	Load(ctx context.Context) (ReferenceTables, error)
}

// DirReferenceLoader reads reference tables stored by the Drive ingest.
type DirReferenceLoader struct {
	dir string
}

func NewDirReferenceLoader(dir string) *DirReferenceLoader {
	return &DirReferenceLoader{dir: dir}
}

// Load reads every kind. A missing table is left empty; the stages that join
// against it then degrade instead of failing the run.
func (l *DirReferenceLoader) Load(ctx context.Context) (ReferenceTables, error) {
	tables := make(map[drive.ReferenceKind]dataset.Table, len(drive.ReferenceKinds))
	for _, kind := range drive.ReferenceKinds {
		if err := ctx.Err(); err != nil {
			return ReferenceTables{}, err
		}
		path := drive.ReferencePath(l.dir, kind)
		t, err := dataset.ReadCSV(path)
		if err != nil {
			if !errors.Is(err, domain.ErrSourceUnavailable) {
				return ReferenceTables{}, fmt.Errorf("load %s reference: %w", kind, err)
			}
			log.Warn().Str("kind", string(kind)).Str("path", path).Msg("reference table missing, using empty table")
		}
		tables[kind] = t
	}
	return ReferenceTables{
		Catalog: tables[drive.ReferenceCatalog],
		Quota:   tables[drive.ReferenceQuota],
		Prices:  tables[drive.ReferencePrices],
		Shopify: tables[drive.ReferenceShopify],
	}, nil
}

// RangeWriter overwrites a spreadsheet range.
type RangeWriter interface {
	WriteRange(ctx context.Context, spreadsheetID, rng string, t dataset.Table) error
}

// FilePublisher uploads local outputs, e.g. to a Drive folder.
type FilePublisher interface {
	Publish(ctx context.Context, paths ...string) ([]*drive.File, error)
}

// OutputArchiver stores run outputs under a date-scoped key.
type OutputArchiver interface {
	Archive(ctx context.Context, date time.Time, paths ...string) ([]string, error)
}

// RunDeps are the collaborators of a run. Optional ones may be nil, which
// drops the node that uses them.
type RunDeps struct {
	Fetchers  []vendor.Fetcher
	Reference ReferenceLoader
	// Series is the time-series backend; nil skips accumulation.
	Series    inventory.SeriesStore
	Recorder  pipeline.RunRecorder
	Lock      cache.RunLock
	Notifier  notify.Notifier
	Publisher FilePublisher
	Archiver  OutputArchiver
	Display   RangeWriter
	Inventory *InventoryService
}

// RunOptions are the per-run settings.
type RunOptions struct {
	Date             time.Time
	Warehouses       []domain.WarehouseID
	BergenWarehouses map[string]domain.WarehouseID
	LAFacilityID     string
	MaxDates         int
	AlertThreshold   int

	IntermediateDir string
	OutputDir       string
	PersistLayers   bool

	SpreadsheetID string
	DisplayRange  string
}

// RunService drives one reconciliation run end to end.
type RunService struct {
	deps RunDeps
}

func NewRunService(deps RunDeps) *RunService {
	if deps.Reference == nil {
		deps.Reference = NewDirReferenceLoader("")
	}
	if deps.Recorder == nil {
		deps.Recorder = pipeline.NewNoopRecorder()
	}
	if deps.Lock == nil {
		deps.Lock = cache.NewRunLock(nil, 0)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.New("")
	}
	return &RunService{deps: deps}
}

// FetchRaw pulls every vendor extract and stores it in the raw layer. Failed
// sources are returned with an empty table.
func (s *RunService) FetchRaw(ctx context.Context, layers *pipeline.LayerWriter) (map[domain.Source]vendor.FetchResult, error) {
	results := vendor.FetchAll(ctx, s.deps.Fetchers...)
	for source, res := range results {
		if res.Err != nil {
			continue
		}
		if _, err := layers.Write(pipeline.LayerRaw, string(source), res.Table); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Run fetches, reconciles and publishes the inventory for opts.Date. The
// summary is returned even when some nodes failed; the error then joins
// every node failure.
func (s *RunService) Run(ctx context.Context, opts RunOptions) (*domain.RunSummary, error) {
	date := inventory.CalendarDate(opts.Date)
	if opts.Date.IsZero() {
		date = inventory.CalendarDate(time.Now())
	}

	release, err := s.deps.Lock.Acquire(ctx, date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	layers := pipeline.NewLayerWriter(opts.IntermediateDir, date, opts.PersistLayers)

	fetched, err := s.FetchRaw(ctx, layers)
	if err != nil {
		return nil, err
	}
	ref, err := s.deps.Reference.Load(ctx)
	if err != nil {
		return nil, err
	}

	p := inventory.NewPipeline(inventory.Config{
		Date:             date,
		Warehouses:       opts.Warehouses,
		BergenWarehouses: opts.BergenWarehouses,
		LAFacilityID:     opts.LAFacilityID,
		MaxDates:         opts.MaxDates,
		AlertThreshold:   opts.AlertThreshold,
		Layers:           layers,
		Series:           s.deps.Series,
	}, inventory.Inputs{
		Bergen:         fetched[domain.SourceBergen].Table,
		TPLCentral:     fetched[domain.SourceTPLCentral].Table,
		ThinkLogistics: fetched[domain.SourceThinkLogistics].Table,
		Catalog:        ref.Catalog,
		Quota:          ref.Quota,
		Prices:         ref.Prices,
		Shopify:        ref.Shopify,
	})
	outputs := &runOutputs{}
	p.Extra = s.outputNodes(p, opts, layers, outputs)

	orchestrator := pipeline.NewOrchestrator(s.deps.Recorder, pipeline.PipelineConfig{
		Name:            p.Name(),
		OutputDir:       opts.OutputDir,
		IntermediateDir: opts.IntermediateDir,
		PersistLayers:   opts.PersistLayers,
	})
	run, runErr := orchestrator.Run(ctx, p, date)
	if run == nil {
		return nil, runErr
	}

	summary := summarize(run.RunID, date, p.Output())
	for source, res := range fetched {
		if res.Err != nil {
			log.Warn().Str("source", string(source)).Err(res.Err).Msg("run used an empty extract")
		}
	}
	return summary, runErr
}

// Accumulate appends a stored final SKU table to the time series without
// rerunning the allocation, and raises the alert when it fires.
func (s *RunService) Accumulate(ctx context.Context, date time.Time, exportPath string, maxDates, threshold int) (inventory.AccumulateResult, error) {
	if s.deps.Series == nil {
		return inventory.AccumulateResult{}, fmt.Errorf("no time series backend configured")
	}
	date = inventory.CalendarDate(date)

	release, err := s.deps.Lock.Acquire(ctx, date)
	if err != nil {
		return inventory.AccumulateResult{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	t, err := dataset.ReadFile(exportPath)
	if err != nil {
		return inventory.AccumulateResult{}, fmt.Errorf("read final table: %w", err)
	}
	today, rejected := inventory.SnapshotsFromExport(t, date)
	if len(rejected) > 0 {
		log.Warn().Str("path", exportPath).Int("rejected", len(rejected)).Err(rejected[0]).Msg("final table rows rejected")
	}

	history, err := s.deps.Series.Load(ctx)
	if err != nil {
		return inventory.AccumulateResult{}, fmt.Errorf("load time series: %w", err)
	}
	res, err := inventory.NewAccumulator(maxDates, threshold).Accumulate(date, history, today)
	if err != nil {
		return res, err
	}
	if err := s.deps.Series.Save(ctx, res.Series); err != nil {
		return res, fmt.Errorf("save time series: %w", err)
	}

	if res.Alert != nil {
		if err := s.deps.Notifier.Notify(ctx, *res.Alert); err != nil {
			return res, fmt.Errorf("notify alert: %w", err)
		}
	}
	log.Info().Int("rows", len(today)).Int("dates", len(res.Totals)).Int("difference", res.Difference).Msg("time series accumulated from final table")
	return res, nil
}

// runOutputs collects the local files the output nodes produced.
type runOutputs struct {
	paths []string
}

func (s *RunService) outputNodes(p *inventory.Pipeline, opts RunOptions, layers *pipeline.LayerWriter, outputs *runOutputs) []pipeline.Node {
	out := p.Output()
	cfg := p.Config()
	accumulates := s.deps.Series != nil

	nodes := []pipeline.Node{{
		Name:  NodeWriteOutputs,
		Needs: []string{inventory.NodeMergeTables, inventory.NodeEnrich},
		Run: func(ctx context.Context) (int, error) {
			table := inventory.ExportTable(out.Enriched, cfg.Warehouses)
			csvPath := filepath.Join(opts.OutputDir, inventory.OutputName(cfg.Date, ".csv"))
			if err := dataset.WriteCSV(csvPath, table); err != nil {
				return 0, err
			}
			mergedPath := filepath.Join(opts.OutputDir, mergedOutputName)
			if err := dataset.WriteCSV(mergedPath, inventory.MergedTable(out.Merged.Records)); err != nil {
				return 0, err
			}
			xlsxPath := filepath.Join(opts.OutputDir, inventory.OutputName(cfg.Date, ".xlsx"))
			charts := report.BuildCharts(out.Merged.Records, out.Enriched, out.Reference.Catalog)
			if err := report.WriteAllocationWorkbook(xlsxPath, table, charts); err != nil {
				return 0, err
			}
			outputs.paths = append(outputs.paths, xlsxPath, csvPath, mergedPath)
			return table.Len(), nil
		},
	}}
	publishNeeds := []string{NodeWriteOutputs}

	if accumulates {
		nodes = append(nodes, pipeline.Node{
			Name:  NodeTimeSeriesReport,
			Needs: []string{inventory.NodeAccumulate},
			Run: func(ctx context.Context) (int, error) {
				path := filepath.Join(opts.OutputDir, timeSeriesReportName)
				ts := out.TimeSeries
				if err := report.WriteTimeSeriesWorkbook(path, inventory.SeriesTable(ts.Series), ts.Totals); err != nil {
					return 0, err
				}
				outputs.paths = append(outputs.paths, path)
				return len(ts.Totals), nil
			},
		})
		publishNeeds = append(publishNeeds, NodeTimeSeriesReport)
	}

	if s.deps.Display != nil && opts.SpreadsheetID != "" {
		nodes = append(nodes, pipeline.Node{
			Name:  NodeUpdateDisplay,
			Needs: []string{inventory.NodeEnrich},
			Run: func(ctx context.Context) (int, error) {
				table := inventory.ExportTable(out.Enriched, cfg.Warehouses)
				if err := s.deps.Display.WriteRange(ctx, opts.SpreadsheetID, opts.DisplayRange, table); err != nil {
					return 0, fmt.Errorf("update display sheet: %w", err)
				}
				return table.Len(), nil
			},
		})
	}

	if s.deps.Publisher != nil {
		nodes = append(nodes, pipeline.Node{
			Name:  NodePublishDrive,
			Needs: publishNeeds,
			Run: func(ctx context.Context) (int, error) {
				files, err := s.deps.Publisher.Publish(ctx, outputs.paths...)
				return len(files), err
			},
		})
	}

	if s.deps.Archiver != nil {
		nodes = append(nodes, pipeline.Node{
			Name:  NodeArchiveOutputs,
			Needs: publishNeeds,
			Run: func(ctx context.Context) (int, error) {
				paths := append(append([]string(nil), outputs.paths...), layers.Written()...)
				keys, err := s.deps.Archiver.Archive(ctx, cfg.Date, paths...)
				return len(keys), err
			},
		})
	}

	if s.deps.Inventory != nil {
		nodes = append(nodes, pipeline.Node{
			Name:  NodePersistAllocation,
			Needs: []string{inventory.NodeEnrich},
			Run: func(ctx context.Context) (int, error) {
				if err := s.deps.Inventory.Publish(ctx, cfg.Date, out.Enriched); err != nil {
					return 0, err
				}
				return len(out.Enriched), nil
			},
		})
	}

	if accumulates {
		nodes = append(nodes, pipeline.Node{
			Name:  NodeNotifyAlert,
			Needs: []string{inventory.NodeAccumulate},
			Run: func(ctx context.Context) (int, error) {
				alert := out.TimeSeries.Alert
				if alert == nil {
					return 0, nil
				}
				log.Warn().Int("difference", alert.Difference).Str("date", alert.Date).Msg("inventory swing above threshold")
				if err := s.deps.Notifier.Notify(ctx, *alert); err != nil {
					return 0, err
				}
				return 1, nil
			},
		})
	}

	return nodes
}

func summarize(runID string, date time.Time, out *inventory.Output) *domain.RunSummary {
	rejected := len(out.Reference.Rejected)
	for _, res := range out.Normalized {
		rejected += len(res.Rejected)
	}
	oversold := 0
	for _, row := range out.Enriched {
		if row.Oversold {
			oversold++
		}
	}
	return &domain.RunSummary{
		RunID:         runID,
		SnapshotDate:  date,
		MergedRecords: len(out.Merged.Records),
		DroppedUPCs:   out.Merged.Dropped,
		RejectedRows:  rejected,
		Allocations:   len(out.Allocation.Rows),
		Oversold:      oversold,
		Unresolved:    out.Allocation.Unresolved,
		DailyTotals:   out.TimeSeries.Totals,
		Alert:         out.TimeSeries.Alert,
		ByDescription: out.ByDescription,
	}
}

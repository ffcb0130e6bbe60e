package inventory

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/rs/zerolog/log"
)

// Name identifies the pipeline in run tracking.
const Name = "inventory"

// Node names, in execution order.
const (
	NodeLoadReference            = "load_reference"
	NodePreprocessBergen         = "preprocess_bergen"
	NodePreprocessTPLCentral     = "preprocess_tplcentral"
	NodePreprocessThinkLogistics = "preprocess_thinklogistics"
	NodeMergeTables              = "merge_tables"
	NodeMetrics                  = "metrics"
	NodeEnrich                   = "add_product_name_sku"
	NodeExperimentMetrics        = "experiment_metrics"
	NodeTotalInventory           = "total_inventory"
	NodeAccumulate               = "accumulate_timeseries"
)

// Inputs are the already-fetched extracts for one run.
type Inputs struct {
	Bergen         dataset.Table
	TPLCentral     dataset.Table
	ThinkLogistics dataset.Table

	Catalog dataset.Table
	Quota   dataset.Table
	Prices  dataset.Table
	Shopify dataset.Table
}

// SeriesStore loads and saves the persisted time series.
type SeriesStore interface {
	Load(ctx context.Context) ([]domain.Snapshot, error)
	Save(ctx context.Context, series []domain.Snapshot) error
}

// Config holds configuration for the inventory pipeline
type Config struct {
	Date             time.Time
	Warehouses       []domain.WarehouseID
	BergenWarehouses map[string]domain.WarehouseID
	LAFacilityID     string
	MaxDates         int
	AlertThreshold   int

	// Layers persists intermediate tables; nil disables persistence.
	Layers *pipeline.LayerWriter
	// Series is the time-series backend; nil skips accumulation.
	Series SeriesStore
}

// Output collects every table the run produced. Fields are filled as nodes
// complete, so a partial run leaves later fields empty.
type Output struct {
	Reference     Reference
	Normalized    map[domain.Source]NormalizeResult
	Merged        MergeResult
	Allocation    AllocationResult
	Enriched      []domain.EnrichedRow
	ByDescription map[string]int
	Today         []domain.Snapshot
	TimeSeries    AccumulateResult
}

// Pipeline is the inventory reconciliation graph. Extra nodes are appended
// after the core nodes and may depend on any of them.
type Pipeline struct {
	cfg         Config
	in          Inputs
	out         *Output
	normalizers []Normalizer
	Extra       []pipeline.Node
}

var _ pipeline.Pipeline = (*Pipeline)(nil)

// NewPipeline creates a new inventory pipeline instance.
func NewPipeline(cfg Config, in Inputs) *Pipeline {
	if cfg.Date.IsZero() {
		cfg.Date = time.Now()
	}
	cfg.Date = CalendarDate(cfg.Date)
	if len(cfg.Warehouses) == 0 {
		cfg.Warehouses = domain.DefaultWarehousePriority
	}
	return &Pipeline{
		cfg: cfg,
		in:  in,
		out: &Output{Normalized: make(map[domain.Source]NormalizeResult)},
		normalizers: []Normalizer{
			NewBergenNormalizer(cfg.BergenWarehouses),
			NewTPLCentralNormalizer(cfg.LAFacilityID),
			NewThinkLogisticsNormalizer(),
		},
	}
}

// Name returns the unique identifier of this pipeline.
func (p *Pipeline) Name() string {
	return Name
}

// Output returns the tables produced so far.
func (p *Pipeline) Output() *Output {
	return p.out
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Nodes declares the stage graph.
func (p *Pipeline) Nodes() []pipeline.Node {
	nodes := []pipeline.Node{
		{Name: NodeLoadReference, Run: p.loadReference},
		{Name: NodePreprocessBergen, Run: p.preprocess(domain.SourceBergen)},
		{Name: NodePreprocessTPLCentral, Needs: []string{NodeLoadReference}, Run: p.preprocess(domain.SourceTPLCentral)},
		{Name: NodePreprocessThinkLogistics, Needs: []string{NodeLoadReference}, Run: p.preprocess(domain.SourceThinkLogistics)},
		{Name: NodeMergeTables, Needs: []string{NodePreprocessBergen, NodePreprocessTPLCentral, NodePreprocessThinkLogistics}, Run: p.merge},
		{Name: NodeMetrics, Needs: []string{NodeMergeTables, NodeLoadReference}, Run: p.metrics},
		{Name: NodeEnrich, Needs: []string{NodeMetrics}, Run: p.enrich},
		{Name: NodeExperimentMetrics, Needs: []string{NodeEnrich}, Run: p.experimentMetrics},
		{Name: NodeTotalInventory, Needs: []string{NodeEnrich}, Run: p.totalInventory},
	}
	if p.cfg.Series != nil {
		nodes = append(nodes, pipeline.Node{Name: NodeAccumulate, Needs: []string{NodeTotalInventory}, Run: p.accumulate})
	}
	return append(nodes, p.Extra...)
}

func (p *Pipeline) loadReference(ctx context.Context) (int, error) {
	p.out.Reference = LoadReference(p.in.Catalog, p.in.Quota, p.in.Prices, p.in.Shopify)
	logRejected("reference", p.out.Reference.Rejected)
	return len(p.out.Reference.Catalog), nil
}

func (p *Pipeline) preprocess(source domain.Source) pipeline.NodeFunc {
	return func(ctx context.Context) (int, error) {
		var n Normalizer
		for _, candidate := range p.normalizers {
			if candidate.Source() == source {
				n = candidate
			}
		}
		if n == nil {
			return 0, fmt.Errorf("no normalizer for %s", source)
		}

		var t dataset.Table
		switch source {
		case domain.SourceBergen:
			t = p.in.Bergen
		case domain.SourceTPLCentral:
			t = p.in.TPLCentral
		case domain.SourceThinkLogistics:
			t = p.in.ThinkLogistics
		}

		res := n.Normalize(t, p.out.Reference.UPCs())
		p.out.Normalized[source] = res

		log.Info().
			Str("source", string(source)).
			Int("input", t.Len()).
			Int("records", len(res.Records)).
			Int("inactive", res.Inactive).
			Int("rejected", len(res.Rejected)).
			Msg("source normalized")
		logRejected(string(source), res.Rejected)

		if err := p.writeLayer(pipeline.LayerIntermediate, string(source)+"_preprocessed", MergedTable(res.Records)); err != nil {
			return 0, err
		}
		return len(res.Records), nil
	}
}

func (p *Pipeline) merge(ctx context.Context) (int, error) {
	p.out.Merged = Merge(
		p.out.Normalized[domain.SourceBergen].Records,
		p.out.Normalized[domain.SourceTPLCentral].Records,
		p.out.Normalized[domain.SourceThinkLogistics].Records,
	)
	if p.out.Merged.Dropped > 0 {
		log.Info().Int("dropped", p.out.Merged.Dropped).Msg("records with invalid upc dropped")
	}
	if err := p.writeLayer(pipeline.LayerPrimary, "merged_inventory", MergedTable(p.out.Merged.Records)); err != nil {
		return 0, err
	}
	return len(p.out.Merged.Records), nil
}

func (p *Pipeline) metrics(ctx context.Context) (int, error) {
	allocator := NewAllocator(p.cfg.Warehouses)
	res := allocator.Allocate(p.out.Merged.Records, p.out.Reference.Quotas, p.out.Reference.Shopify)
	p.out.Allocation = res

	if res.Unresolved > 0 {
		log.Warn().Int("unresolved", res.Unresolved).Msg("sentinel skus left unresolved")
	}
	if res.Ignored > 0 {
		log.Warn().Int("ignored", res.Ignored).Msg("records for unlisted warehouses ignored")
	}
	return len(res.Rows), nil
}

func (p *Pipeline) enrich(ctx context.Context) (int, error) {
	p.out.Enriched = Enrich(p.out.Allocation.Rows, p.out.Reference.Catalog, p.out.Reference.Prices)
	if err := p.writeLayer(pipeline.LayerPrimary, "final_sku_table", ExportTable(p.out.Enriched, p.cfg.Warehouses)); err != nil {
		return 0, err
	}
	return len(p.out.Enriched), nil
}

func (p *Pipeline) experimentMetrics(ctx context.Context) (int, error) {
	p.out.ByDescription = InventoryByDescription(p.out.Enriched)
	return len(p.out.ByDescription), nil
}

func (p *Pipeline) totalInventory(ctx context.Context) (int, error) {
	p.out.Today = SnapshotsFrom(p.out.Enriched, p.cfg.Date)
	if err := p.writeLayer(pipeline.LayerReporting, "total_inventory", SeriesTable(p.out.Today)); err != nil {
		return 0, err
	}
	return len(p.out.Today), nil
}

func (p *Pipeline) accumulate(ctx context.Context) (int, error) {
	history, err := p.cfg.Series.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load time series: %w", err)
	}

	acc := NewAccumulator(p.cfg.MaxDates, p.cfg.AlertThreshold)
	res, err := acc.Accumulate(p.cfg.Date, history, p.out.Today)
	if err != nil {
		return 0, err
	}
	p.out.TimeSeries = res

	if err := p.cfg.Series.Save(ctx, res.Series); err != nil {
		return 0, fmt.Errorf("save time series: %w", err)
	}

	ev := log.Info().
		Int("rows", len(res.Series)).
		Int("dates", len(res.Totals)).
		Int("pruned", len(res.PrunedDates)).
		Int("difference", res.Difference)
	if res.Alert != nil {
		ev = ev.Bool("alert", true)
	}
	ev.Msg("time series accumulated")

	return len(res.Series), nil
}

func (p *Pipeline) writeLayer(layer, name string, t dataset.Table) error {
	if p.cfg.Layers == nil {
		return nil
	}
	_, err := p.cfg.Layers.Write(layer, name, t)
	return err
}

// OutputName is the final table's file name for a date, e.g. 10-18-2026.xlsx.
func OutputName(date time.Time, ext string) string {
	return date.Format("01-02-2006") + ext
}

// LayerPath is a convenience for callers reading back persisted layers.
func LayerPath(root, layer string, date time.Time, name string) string {
	return filepath.Join(root, layer, date.Format("20060102"), name+".csv")
}

func logRejected(source string, rejected []*domain.RowError) {
	for i, r := range rejected {
		if i >= 20 {
			log.Warn().Str("source", source).Int("more", len(rejected)-i).Msg("further rejected rows omitted")
			return
		}
		log.Warn().Str("source", source).Int("row", r.Row).Str("field", r.Field).Err(r.Err).Msg("row rejected")
	}
}

package inventory_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySeries struct {
	rows    []domain.Snapshot
	loadErr error
}

func (m *memorySeries) Load(ctx context.Context) ([]domain.Snapshot, error) {
	return m.rows, m.loadErr
}

func (m *memorySeries) Save(ctx context.Context, series []domain.Snapshot) error {
	m.rows = series
	return nil
}

func sampleInputs() inventory.Inputs {
	return inventory.Inputs{
		Bergen: dataset.New(
			[]string{"WAREHOUSENAME", "SKU", "UPCCODE", "ACTUALQTY", "PENDINGPICKING", "AVAILABLE"},
			[][]string{
				{"Bergen Logistics NJ299", "A", "123456789012", "100", "0", "100"},
				{"Bergen Logistics NJ299", "", "012345678905", "4", "0", "4"},
				{"Bergen Logistics NJ299", "Z", "1234", "4", "0", "4"},
			},
		),
		TPLCentral: dataset.New(
			[]string{"SKU", "AVAILABLE", "onHand", "facilityId"},
			[][]string{{"A", "40", "40", "659"}},
		),
		Catalog: dataset.New(
			[]string{"SKU_standard", "UPC", "Collection", "Product Description"},
			[][]string{
				{"A", "123456789012", "Home", "Blanket"},
				{"X123", "012345678905", "Home", "Pillow"},
			},
		),
		Quota: dataset.New(
			[]string{"SKU", "Quota", "Quota Amount"},
			[][]string{{"A", "Wholesale", "30"}},
		),
		Shopify: dataset.New(
			[]string{"SKU", "UPCCODE"},
			[][]string{{"X123", "012345678905"}},
		),
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	date := day(10)
	series := &memorySeries{rows: []domain.Snapshot{snap("A", 900, day(9))}}

	p := inventory.NewPipeline(inventory.Config{
		Date:   date,
		Layers: pipeline.NewLayerWriter(dir, date, true),
		Series: series,
	}, sampleInputs())

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("inventory")).Run(context.Background(), p, date)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Equal(t, len(p.Nodes()), run.CompletedNodes)

	out := p.Output()
	assert.Equal(t, 1, out.Merged.Dropped)
	assert.Equal(t, 1, out.Allocation.Resolved)
	require.Len(t, out.Enriched, 2)

	a := out.Enriched[0]
	assert.Equal(t, "A", a.SKU)
	assert.Equal(t, domain.WarehouseBLNJ, a.ChosenWarehouse)
	assert.Equal(t, 70, a.Remaining[domain.WarehouseBLNJ])
	assert.Equal(t, 40, a.Remaining[domain.Warehouse3PLCLA])
	assert.Equal(t, 110, a.TotalAvailable)
	assert.Equal(t, "Blanket", a.Description)

	assert.Equal(t, "X123", out.Enriched[1].SKU)
	assert.Equal(t, "Pillow", out.Enriched[1].Description)

	// 900 yesterday, 110 + 4 today
	require.NotNil(t, out.TimeSeries.Alert)
	assert.Equal(t, -786, out.TimeSeries.Difference)
	assert.Len(t, series.rows, 3)

	assert.FileExists(t, filepath.Join(dir, pipeline.LayerPrimary, "20260111", "final_sku_table.csv"))
	assert.FileExists(t, filepath.Join(dir, pipeline.LayerPrimary, "20260111", "merged_inventory.csv"))
}

func TestPipeline_EmptyInputs(t *testing.T) {
	p := inventory.NewPipeline(inventory.Config{Date: day(0)}, inventory.Inputs{})

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("inventory")).Run(context.Background(), p, day(0))
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Empty(t, p.Output().Allocation.Rows)
	assert.Empty(t, p.Output().Enriched)
}

func TestPipeline_SeriesFailureIsPartial(t *testing.T) {
	series := &memorySeries{loadErr: errors.New("sheet unavailable")}
	p := inventory.NewPipeline(inventory.Config{Date: day(0), Series: series}, sampleInputs())

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("inventory")).Run(context.Background(), p, day(0))
	require.Error(t, err)
	assert.Equal(t, pipeline.StatusPartial, run.Status)
	assert.Equal(t, 1, run.FailedNodes)
	assert.NotEmpty(t, p.Output().Enriched)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "01-11-2026.xlsx", inventory.OutputName(day(10), ".xlsx"))
}

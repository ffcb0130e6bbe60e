package report_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func merged() []domain.InventoryRecord {
	return []domain.InventoryRecord{
		{SKU: "A", UPC: "111111111111", WarehouseID: domain.WarehouseBLNJ, AvailableQty: 10},
		{SKU: "A", UPC: "111111111111", WarehouseID: domain.Warehouse3PLCLA, AvailableQty: 4},
		{SKU: "B", UPC: "222222222222", WarehouseID: domain.WarehouseBLNJ, AvailableQty: 3},
		{SKU: "C", UPC: "333333333333", WarehouseID: domain.WarehouseThinkLogistics, AvailableQty: 7},
	}
}

func enriched() []domain.EnrichedRow {
	return []domain.EnrichedRow{
		{AllocationRow: domain.AllocationRow{SKU: "A", QuotaAmount: 5, TotalInventory: 14,
			Remaining: domain.WarehouseQty{domain.WarehouseBLNJ: 5}}, Description: "Blanket"},
		{AllocationRow: domain.AllocationRow{SKU: "B", QuotaAmount: 0, TotalInventory: 3,
			Remaining: domain.WarehouseQty{domain.WarehouseBLNJ: 3}}, Description: "Pillow"},
		{AllocationRow: domain.AllocationRow{SKU: "C", QuotaAmount: -2, TotalInventory: 7}, Description: "Robe"},
	}
}

// ==================== Chart data ====================

func TestWarehouseAvailability(t *testing.T) {
	bars := report.WarehouseAvailability(merged())

	require.Len(t, bars, 3)
	assert.Equal(t, report.Bar{Label: "BLNJ", Value: 13}, bars[0])
	assert.Equal(t, report.Bar{Label: "THINKLOGISTICS", Value: 7}, bars[1])
	assert.Equal(t, report.Bar{Label: "3PLC LA", Value: 4}, bars[2])
}

func TestQuotaBySKU_PositiveOnly(t *testing.T) {
	rows := make([]domain.AllocationRow, 0)
	for _, r := range enriched() {
		rows = append(rows, r.AllocationRow)
	}

	bars := report.QuotaBySKU(rows)

	require.Len(t, bars, 1)
	assert.Equal(t, "A", bars[0].Label)
	assert.Equal(t, 5, bars[0].Value)
}

func TestInventoryBySKU(t *testing.T) {
	bars := report.InventoryBySKU(enriched())

	require.Len(t, bars, 3)
	assert.Equal(t, report.Bar{Label: "A", Detail: "Blanket", Value: 14}, bars[0])
	assert.Equal(t, "B", bars[2].Label)
}

func TestRemainingByDescription(t *testing.T) {
	bars := report.RemainingByDescription(enriched(), domain.WarehouseBLNJ)

	require.Len(t, bars, 3)
	assert.Equal(t, report.Bar{Label: "Blanket", Value: 5}, bars[0])
	assert.Equal(t, report.Bar{Label: "Robe", Value: 0}, bars[2])
}

func TestStackedAvailability(t *testing.T) {
	catalog := []domain.CatalogEntry{{SKU: "A", Description: "Blanket"}, {SKU: "B", Description: "Pillow"}}

	s := report.StackedAvailability(merged(), catalog)

	assert.Equal(t, []string{"Blanket", "C", "Pillow"}, s.Categories)
	require.Len(t, s.Series, 3)
	assert.Equal(t, "3PLC LA", s.Series[0].Name)
	assert.Equal(t, []int{4, 0, 0}, s.Series[0].Values)
	assert.Equal(t, "BLNJ", s.Series[1].Name)
	assert.Equal(t, []int{10, 0, 3}, s.Series[1].Values)
}

// ==================== Workbooks ====================

func TestWriteAllocationWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "01-11-2026.xlsx")
	table := dataset.New([]string{"SKU", "Total Inventory"}, [][]string{{"A", "14"}, {"B", "3"}})
	charts := report.BuildCharts(merged(), enriched(), []domain.CatalogEntry{{SKU: "A", Description: "Blanket"}})

	require.NoError(t, report.WriteAllocationWorkbook(path, table, charts))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetFinalTable, report.SheetCharts}, f.GetSheetList())

	v, err := f.GetCellValue(report.SheetFinalTable, "A3")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	v, err = f.GetCellValue(report.SheetCharts, "A2")
	require.NoError(t, err)
	assert.Equal(t, "BLNJ", v)
	v, err = f.GetCellValue(report.SheetCharts, "B2")
	require.NoError(t, err)
	assert.Equal(t, "13", v)
}

func TestWriteAllocationWorkbook_EmptyCharts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, report.WriteAllocationWorkbook(path, dataset.New([]string{"SKU"}, nil), report.Charts{}))
}

func TestWriteTimeSeriesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.xlsx")
	series := dataset.New([]string{"SKU", "Total Available", "Date"}, [][]string{{"A", "3", "01/10/2026"}})
	totals := []domain.DailyTotal{
		{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), TotalAvailable: 3},
		{Date: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), TotalAvailable: 9},
	}

	require.NoError(t, report.WriteTimeSeriesWorkbook(path, series, totals))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(report.SheetDailyTotals, "A3")
	require.NoError(t, err)
	assert.Equal(t, "01/11/2026", v)
	v, err = f.GetCellValue(report.SheetDailyTotals, "B3")
	require.NoError(t, err)
	assert.Equal(t, "9", v)
}

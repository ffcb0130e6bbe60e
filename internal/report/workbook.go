package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	SheetFinalTable  = "Final SKU Table"
	SheetCharts      = "Charts"
	SheetTimeSeries  = "Time Series"
	SheetDailyTotals = "Daily Totals"

	chartRowSpan = 20
)

// WriteAllocationWorkbook writes the final SKU table and a chart sheet with a
// data block and bar chart per chart.
func WriteAllocationWorkbook(path string, table dataset.Table, charts Charts) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFinalTable); err != nil {
		return err
	}
	if err := writeTable(f, SheetFinalTable, table); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetCharts); err != nil {
		return err
	}

	row := 1
	blocks := []struct {
		title string
		bars  []Bar
	}{
		{"Total Available Quantity for Each Warehouse", charts.WarehouseAvailability},
		{"Quota for each SKU", charts.QuotaBySKU},
		{"SKUs with highest inventory", charts.InventoryBySKU},
		{"Remaining units in BLNJ by product", charts.RemainingBLNJ},
	}
	for _, b := range blocks {
		next, err := writeBarChart(f, SheetCharts, row, b.title, b.bars)
		if err != nil {
			return fmt.Errorf("chart %q: %w", b.title, err)
		}
		row = next
	}
	if err := writeStackedChart(f, SheetCharts, row, "Inventory in each warehouse", charts.StackedAvailability); err != nil {
		return fmt.Errorf("stacked chart: %w", err)
	}

	return save(f, path)
}

// WriteTimeSeriesWorkbook writes the retained series and a line chart of the
// daily totals.
func WriteTimeSeriesWorkbook(path string, series dataset.Table, totals []domain.DailyTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTimeSeries); err != nil {
		return err
	}
	if err := writeTable(f, SheetTimeSeries, series); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetDailyTotals); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetDailyTotals, "A1", &[]interface{}{"Date", "Total Available"}); err != nil {
		return err
	}
	for i, t := range totals {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetDailyTotals, cell, &[]interface{}{t.Date.Format("01/02/2006"), t.TotalAvailable}); err != nil {
			return err
		}
	}

	if len(totals) > 0 {
		last := len(totals) + 1
		err := f.AddChart(SheetDailyTotals, "D2", &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       "Total Available",
				Categories: rangeRef(SheetDailyTotals, "A", 2, last),
				Values:     rangeRef(SheetDailyTotals, "B", 2, last),
			}},
			Title:  []excelize.RichTextRun{{Text: "Total available per day"}},
			Legend: excelize.ChartLegend{Position: "none"},
		})
		if err != nil {
			return fmt.Errorf("daily totals chart: %w", err)
		}
	}

	return save(f, path)
}

func writeTable(f *excelize.File, sheet string, t dataset.Table) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, record := range t.Rows {
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// writeBarChart lays out a two-column data block at row and a chart beside
// it. It returns the first free row after the block.
func writeBarChart(f *excelize.File, sheet string, row int, title string, bars []Bar) (int, error) {
	titleCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(sheet, titleCell, title); err != nil {
		return row, err
	}
	for i, b := range bars {
		cell, _ := excelize.CoordinatesToCellName(1, row+1+i)
		label := b.Label
		if b.Detail != "" {
			label = fmt.Sprintf("%s (%s)", b.Label, b.Detail)
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{label, b.Value}); err != nil {
			return row, err
		}
	}

	if len(bars) > 0 {
		first, last := row+1, row+len(bars)
		anchor, _ := excelize.CoordinatesToCellName(4, row)
		err := f.AddChart(sheet, anchor, &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       title,
				Categories: rangeRef(sheet, "A", first, last),
				Values:     rangeRef(sheet, "B", first, last),
			}},
			Title:  []excelize.RichTextRun{{Text: title}},
			Legend: excelize.ChartLegend{Position: "none"},
		})
		if err != nil {
			return row, err
		}
	}

	span := len(bars) + 2
	if span < chartRowSpan {
		span = chartRowSpan
	}
	return row + span, nil
}

func writeStackedChart(f *excelize.File, sheet string, row int, title string, s Stacked) error {
	titleCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(sheet, titleCell, title); err != nil {
		return err
	}

	header := []interface{}{"Product"}
	for _, series := range s.Series {
		header = append(header, series.Name)
	}
	headerCell, _ := excelize.CoordinatesToCellName(1, row+1)
	if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
		return err
	}
	for i, category := range s.Categories {
		values := []interface{}{category}
		for _, series := range s.Series {
			values = append(values, series.Values[i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, row+2+i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(s.Categories) == 0 || len(s.Series) == 0 {
		return nil
	}

	first, last := row+2, row+1+len(s.Categories)
	chartSeries := make([]excelize.ChartSeries, 0, len(s.Series))
	for i := range s.Series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		chartSeries = append(chartSeries, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$%d", sheet, col, row+1),
			Categories: rangeRef(sheet, "A", first, last),
			Values:     rangeRef(sheet, col, first, last),
		})
	}
	anchor, _ := excelize.CoordinatesToCellName(len(s.Series)+3, row)
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   excelize.ColStacked,
		Series: chartSeries,
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

func rangeRef(sheet, col string, first, last int) string {
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, col, first, col, last)
}

func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("workbook written")
	return nil
}

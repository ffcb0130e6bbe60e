package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

const (
	// DateLayout is how snapshot dates are persisted.
	DateLayout = "01/02/2006"

	DefaultMaxDates       = 31
	DefaultAlertThreshold = 500
)

// ErrOutsideWindow is returned when the run date is older than every date
// the retention window keeps.
var ErrOutsideWindow = errors.New("snapshot date outside retention window")

var dateLayouts = []string{DateLayout, "1/2/2006", "2006-01-02", "01/02/06", time.RFC3339}

// ParseDate accepts the persisted layout plus a few spreadsheet variants and
// returns the calendar date at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// CalendarDate truncates t to its calendar date in UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Accumulator maintains the rolling total-available series.
type Accumulator struct {
	MaxDates  int
	Threshold int
}

func NewAccumulator(maxDates, threshold int) *Accumulator {
	if maxDates <= 0 {
		maxDates = DefaultMaxDates
	}
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	return &Accumulator{MaxDates: maxDates, Threshold: threshold}
}

// AccumulateResult is the updated series plus the day-over-day comparison.
type AccumulateResult struct {
	Series      []domain.Snapshot
	Totals      []domain.DailyTotal
	PrunedDates []time.Time
	Difference  int
	Alert       *domain.AlertEvent
}

// SnapshotsFrom builds today's series rows from the final SKU table, one row
// per SKU. Allocation rows sharing a SKU (several UPCs, unresolved
// Missing_SKU_ rows) are summed.
func SnapshotsFrom(rows []domain.EnrichedRow, date time.Time) []domain.Snapshot {
	date = CalendarDate(date)
	out := make([]domain.Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Snapshot{
			SKU:            r.SKU,
			TotalAvailable: r.TotalAvailable,
			Collection:     r.Collection,
			Date:           date,
			Color:          r.Color,
			Weight:         r.Weight,
		})
	}
	return sumBySKU(out)
}

// sumBySKU folds snapshots of the same (SKU, Date) into one, adding
// TotalAvailable and keeping the first row's attributes and order.
func sumBySKU(snaps []domain.Snapshot) []domain.Snapshot {
	type key struct {
		SKU  string
		Date time.Time
	}
	index := make(map[key]int, len(snaps))
	out := make([]domain.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		k := key{SKU: s.SKU, Date: CalendarDate(s.Date)}
		if i, ok := index[k]; ok {
			out[i].TotalAvailable += s.TotalAvailable
			continue
		}
		index[k] = len(out)
		out = append(out, s)
	}
	return out
}

// Accumulate upserts today's rows into history by (SKU, Date), keeps the most
// recent MaxDates distinct dates and compares the run date's total with the
// closest earlier date in the series. A run date that the window would drop
// returns ErrOutsideWindow and leaves the series untouched.
func (a *Accumulator) Accumulate(date time.Time, history, today []domain.Snapshot) (AccumulateResult, error) {
	type key struct {
		SKU  string
		Date time.Time
	}
	date = CalendarDate(date)

	merged := make(map[key]domain.Snapshot, len(history)+len(today))
	for _, batch := range [][]domain.Snapshot{sumBySKU(history), sumBySKU(today)} {
		for _, s := range batch {
			s.Date = CalendarDate(s.Date)
			merged[key{SKU: s.SKU, Date: s.Date}] = s
		}
	}

	dateSet := make(map[time.Time]struct{})
	for k := range merged {
		dateSet[k.Date] = struct{}{}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var res AccumulateResult
	if len(dates) > a.MaxDates {
		res.PrunedDates = dates[:len(dates)-a.MaxDates]
		dates = dates[len(dates)-a.MaxDates:]
	}
	cutoff := time.Time{}
	if len(dates) > 0 {
		cutoff = dates[0]
	}
	if len(today) > 0 && date.Before(cutoff) {
		return AccumulateResult{}, fmt.Errorf("%s is older than %s: %w", date.Format(DateLayout), cutoff.Format(DateLayout), ErrOutsideWindow)
	}

	series := make([]domain.Snapshot, 0, len(merged))
	for k, s := range merged {
		if k.Date.Before(cutoff) {
			continue
		}
		series = append(series, s)
	}
	sort.Slice(series, func(i, j int) bool {
		if !series[i].Date.Equal(series[j].Date) {
			return series[i].Date.Before(series[j].Date)
		}
		return series[i].SKU < series[j].SKU
	})
	res.Series = series
	res.Totals = DailyTotals(series)

	current, previous := -1, -1
	for i, t := range res.Totals {
		if t.Date.Equal(date) {
			current = i
			break
		}
		previous = i
	}
	if current >= 0 && previous >= 0 {
		res.Difference = res.Totals[current].TotalAvailable - res.Totals[previous].TotalAvailable
		if abs(res.Difference) >= a.Threshold {
			res.Alert = &domain.AlertEvent{
				Difference: res.Difference,
				Date:       date.Format(DateLayout),
			}
		}
	}

	return res, nil
}

// DailyTotals sums TotalAvailable per date, ascending by date.
func DailyTotals(series []domain.Snapshot) []domain.DailyTotal {
	byDate := make(map[time.Time]int)
	for _, s := range series {
		byDate[CalendarDate(s.Date)] += s.TotalAvailable
	}
	out := make([]domain.DailyTotal, 0, len(byDate))
	for d, total := range byDate {
		out = append(out, domain.DailyTotal{Date: d, TotalAvailable: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SeriesColumns is the header of the persisted time series.
var SeriesColumns = []string{"SKU", "Total Available", "Collection", "Date", "Color", "Weight (lbs)"}

// SeriesTable renders the series for persistence.
func SeriesTable(series []domain.Snapshot) dataset.Table {
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		rows = append(rows, []string{
			s.SKU,
			strconv.Itoa(s.TotalAvailable),
			s.Collection,
			s.Date.Format(DateLayout),
			s.Color,
			s.Weight.String(),
		})
	}
	return dataset.New(SeriesColumns, rows)
}

// SeriesFromTable parses a persisted series. Rows with an unparseable date or
// quantity are rejected; repeated (SKU, Date) rows are summed.
func SeriesFromTable(t dataset.Table) ([]domain.Snapshot, []*domain.RowError) {
	if t.Empty() {
		return nil, nil
	}

	idxSKU := t.Column("SKU")
	idxTotal := t.Column("Total Available")
	idxCollection := t.Column("Collection")
	idxDate := t.Column("Date")
	idxColor := t.Column("Color")
	idxWeight := t.Column("Weight (lbs)", "weight")

	var rejected []*domain.RowError
	out := make([]domain.Snapshot, 0, len(t.Rows))
	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			rejected = append(rejected, &domain.RowError{Source: "timeseries", Row: row, Field: field, Err: err})
		}

		date, err := ParseDate(dataset.Value(record, idxDate))
		if err != nil {
			reject("Date", err)
			continue
		}
		total, err := parseQty(dataset.Value(record, idxTotal))
		if err != nil {
			reject("Total Available", err)
			continue
		}
		weight, err := parseDecimal(dataset.Value(record, idxWeight))
		if err != nil {
			reject("Weight (lbs)", err)
			continue
		}
		out = append(out, domain.Snapshot{
			SKU:            dataset.Value(record, idxSKU),
			TotalAvailable: total,
			Collection:     dataset.Value(record, idxCollection),
			Date:           date,
			Color:          dataset.Value(record, idxColor),
			Weight:         weight,
		})
	}
	return sumBySKU(out), rejected
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SnapshotsFromExport reads today's series rows back from a stored final SKU
// table, for accumulating without rerunning the allocation. Rows sharing a
// SKU are summed as in SnapshotsFrom.
func SnapshotsFromExport(t dataset.Table, date time.Time) ([]domain.Snapshot, []*domain.RowError) {
	date = CalendarDate(date)
	idxSKU := t.Column("SKU")
	idxTotal := t.Column("Total Available")
	idxCollection := t.Column("Collection")
	idxColor := t.Column("Color")
	idxWeight := t.Column("Weight (lbs)", "weight")

	var rejected []*domain.RowError
	if idxSKU < 0 || idxTotal < 0 {
		rejected = append(rejected, &domain.RowError{Source: "final_sku_table", Field: "SKU", Err: domain.ErrMissingIdentifier})
		return nil, rejected
	}

	out := make([]domain.Snapshot, 0, len(t.Rows))
	for i, record := range t.Rows {
		total, err := parseQty(dataset.Value(record, idxTotal))
		if err != nil {
			rejected = append(rejected, &domain.RowError{Source: "final_sku_table", Row: i + 1, Field: "Total Available", Err: err})
			continue
		}
		weight, err := parseDecimal(dataset.Value(record, idxWeight))
		if err != nil {
			rejected = append(rejected, &domain.RowError{Source: "final_sku_table", Row: i + 1, Field: "Weight (lbs)", Err: err})
			continue
		}
		out = append(out, domain.Snapshot{
			SKU:            dataset.Value(record, idxSKU),
			TotalAvailable: total,
			Collection:     dataset.Value(record, idxCollection),
			Date:           date,
			Color:          dataset.Value(record, idxColor),
			Weight:         weight,
		})
	}
	return sumBySKU(out), rejected
}

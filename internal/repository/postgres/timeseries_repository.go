package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
)

type timeSeriesRepository struct {
	db *DB
}

var _ repository.TimeSeriesRepository = (*timeSeriesRepository)(nil)

func NewTimeSeriesRepository(db *DB) repository.TimeSeriesRepository {
	return &timeSeriesRepository{db: db}
}

func (r *timeSeriesRepository) LoadSeries(ctx context.Context) ([]domain.Snapshot, error) {
	query := `
		SELECT sku, total_available, collection, snapshot_date, color, weight
		FROM inventory_timeseries
		ORDER BY snapshot_date, sku
	`

	var series []domain.Snapshot
	if err := r.db.SelectContext(ctx, &series, query); err != nil {
		return nil, fmt.Errorf("error loading time series: %w", err)
	}
	for i := range series {
		series[i].Date = calendarDate(series[i].Date)
	}
	return series, nil
}

// SaveSeries upserts every (sku, date) row and removes dates that fell out of
// the retained window.
func (r *timeSeriesRepository) SaveSeries(ctx context.Context, series []domain.Snapshot) error {
	dates := make(map[string]struct{})
	for _, s := range series {
		dates[s.Date.Format("2006-01-02")] = struct{}{}
	}
	kept := make([]string, 0, len(dates))
	for d := range dates {
		kept = append(kept, d)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for start := 0; start < len(series); start += insertBatchSize {
			end := start + insertBatchSize
			if end > len(series) {
				end = len(series)
			}
			query, args := buildSeriesUpsert(series[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("error upserting time series: %w", err)
			}
		}

		if len(kept) == 0 {
			return nil
		}
		prune, args, err := sqlx.In(`DELETE FROM inventory_timeseries WHERE snapshot_date::text NOT IN (?)`, kept)
		if err != nil {
			return fmt.Errorf("error building prune query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(prune), args...); err != nil {
			return fmt.Errorf("error pruning time series: %w", err)
		}
		return nil
	})
}

func buildSeriesUpsert(series []domain.Snapshot) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO inventory_timeseries (sku, total_available, collection, snapshot_date, color, weight) VALUES ")

	args := make([]interface{}, 0, len(series)*6)
	for i, s := range series {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d::date, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, s.SKU, s.TotalAvailable, s.Collection, s.Date.Format("2006-01-02"), s.Color, s.Weight)
	}
	sb.WriteString(` ON CONFLICT (sku, snapshot_date) DO UPDATE SET
		total_available = EXCLUDED.total_available,
		collection = EXCLUDED.collection,
		color = EXCLUDED.color,
		weight = EXCLUDED.weight,
		updated_at = NOW()`)
	return sb.String(), args
}

func (r *timeSeriesRepository) GetDailyTotals(ctx context.Context, limit int) ([]domain.DailyTotal, error) {
	if limit <= 0 {
		limit = 31
	}

	query := `
		SELECT snapshot_date, total_available FROM (
			SELECT snapshot_date, SUM(total_available) AS total_available
			FROM inventory_timeseries
			GROUP BY snapshot_date
			ORDER BY snapshot_date DESC
			LIMIT $1
		) t
		ORDER BY snapshot_date
	`

	var totals []domain.DailyTotal
	if err := r.db.SelectContext(ctx, &totals, query, limit); err != nil {
		return nil, fmt.Errorf("error getting daily totals: %w", err)
	}
	for i := range totals {
		totals[i].Date = calendarDate(totals[i].Date)
	}
	return totals, nil
}

// calendarDate drops the zone lib/pq attaches to DATE columns.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

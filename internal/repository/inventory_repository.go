package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// InventoryRepository persists published allocation snapshots and serves the
// read side of the API.
type InventoryRepository interface {
	SaveAllocations(ctx context.Context, date time.Time, rows []domain.EnrichedRow) error
	GetWarehouseSummary(ctx context.Context, filter domain.InventoryFilter) ([]domain.WarehouseSummary, error)
	GetStateSummary(ctx context.Context, filter domain.InventoryFilter) ([]domain.StateSummary, error)
	GetAllocationItems(ctx context.Context, filter domain.InventoryFilter) ([]domain.EnrichedRow, int, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
}

// TimeSeriesRepository stores the per-SKU daily totals.
type TimeSeriesRepository interface {
	LoadSeries(ctx context.Context) ([]domain.Snapshot, error)
	SaveSeries(ctx context.Context, series []domain.Snapshot) error
	GetDailyTotals(ctx context.Context, limit int) ([]domain.DailyTotal, error)
}

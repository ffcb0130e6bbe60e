package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventoryRepo struct {
	dates      []time.Time
	items      []domain.EnrichedRow
	saved      map[string][]domain.EnrichedRow
	lastFilter domain.InventoryFilter
	summaryErr error
	summaries  int
}

func (f *fakeInventoryRepo) SaveAllocations(_ context.Context, date time.Time, rows []domain.EnrichedRow) error {
	if f.saved == nil {
		f.saved = map[string][]domain.EnrichedRow{}
	}
	f.saved[date.Format("2006-01-02")] = rows
	return nil
}

func (f *fakeInventoryRepo) GetWarehouseSummary(_ context.Context, filter domain.InventoryFilter) ([]domain.WarehouseSummary, error) {
	f.lastFilter = filter
	f.summaries++
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return []domain.WarehouseSummary{{Warehouse: "BLNJ", SKUCount: 1, TotalAvailable: 10}}, nil
}

func (f *fakeInventoryRepo) GetStateSummary(context.Context, domain.InventoryFilter) ([]domain.StateSummary, error) {
	return nil, nil
}

func (f *fakeInventoryRepo) GetAllocationItems(_ context.Context, filter domain.InventoryFilter) ([]domain.EnrichedRow, int, error) {
	f.lastFilter = filter
	return f.items, len(f.items), nil
}

func (f *fakeInventoryRepo) GetAvailableDates(_ context.Context, limit int) ([]time.Time, error) {
	if limit < len(f.dates) {
		return f.dates[:limit], nil
	}
	return f.dates, nil
}

type fakeSeriesRepo struct{}

func (fakeSeriesRepo) LoadSeries(context.Context) ([]domain.Snapshot, error) { return nil, nil }
func (fakeSeriesRepo) SaveSeries(context.Context, []domain.Snapshot) error { return nil }
func (fakeSeriesRepo) GetDailyTotals(context.Context, int) ([]domain.DailyTotal, error) {
	return []domain.DailyTotal{{Date: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), TotalAvailable: 10}}, nil
}

// ==================== Dashboard ====================

func TestGetDashboard_DefaultsToLatestDate(t *testing.T) {
	repo := &fakeInventoryRepo{dates: []time.Time{time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)}}
	svc := service.NewInventoryService(repo, fakeSeriesRepo{}, nil)

	dashboard, err := svc.GetDashboard(context.Background(), domain.InventoryFilter{})
	require.NoError(t, err)

	assert.Equal(t, "2026-01-11", dashboard.SnapshotDate)
	assert.Equal(t, "2026-01-11", repo.lastFilter.SnapshotDate)
	assert.Len(t, dashboard.Warehouses, 1)
	assert.NotNil(t, dashboard.States)
	assert.Len(t, dashboard.DailyTotals, 1)
}

func TestGetDashboard_NothingPublished(t *testing.T) {
	svc := service.NewInventoryService(&fakeInventoryRepo{}, fakeSeriesRepo{}, nil)

	_, err := svc.GetDashboard(context.Background(), domain.InventoryFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDashboard_RepoError(t *testing.T) {
	repo := &fakeInventoryRepo{summaryErr: errors.New("db down")}
	svc := service.NewInventoryService(repo, fakeSeriesRepo{}, nil)

	_, err := svc.GetDashboard(context.Background(), domain.InventoryFilter{SnapshotDate: "2026-01-11"})
	assert.ErrorContains(t, err, "db down")
}

// ==================== Items ====================

func TestGetItems_Pagination(t *testing.T) {
	repo := &fakeInventoryRepo{items: make([]domain.EnrichedRow, 5)}
	svc := service.NewInventoryService(repo, nil, nil)

	res, err := svc.GetItems(context.Background(), domain.InventoryFilter{SnapshotDate: "2026-01-11", Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.TotalPages)
}

// ==================== Publish ====================

func TestPublish(t *testing.T) {
	repo := &fakeInventoryRepo{}
	svc := service.NewInventoryService(repo, nil, nil)
	date := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Publish(context.Background(), date, []domain.EnrichedRow{{}}))
	assert.Len(t, repo.saved["2026-01-11"], 1)
}

func TestGetDailyTotals_NoSeriesRepo(t *testing.T) {
	svc := service.NewInventoryService(&fakeInventoryRepo{}, nil, nil)

	totals, err := svc.GetDailyTotals(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

const defaultDailyTotals = 31

type InventoryService struct {
	repo   repository.InventoryRepository
	series repository.TimeSeriesRepository
	cache  cache.DashboardCache
}

func NewInventoryService(repo repository.InventoryRepository, series repository.TimeSeriesRepository, cacheImpl cache.DashboardCache) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &InventoryService{repo: repo, series: series, cache: cacheImpl}
}

// Publish stores the enriched allocation for date and drops cached dashboards.
func (s *InventoryService) Publish(ctx context.Context, date time.Time, rows []domain.EnrichedRow) error {
	if err := s.repo.SaveAllocations(ctx, date, rows); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
	log.Info().Str("date", date.Format("2006-01-02")).Int("rows", len(rows)).Msg("allocation published")
	return nil
}

// resolveDate fills in the latest published date when the filter has none.
func (s *InventoryService) resolveDate(ctx context.Context, filter domain.InventoryFilter) (domain.InventoryFilter, error) {
	if filter.SnapshotDate != "" {
		return filter, nil
	}
	dates, err := s.repo.GetAvailableDates(ctx, 1)
	if err != nil {
		return filter, err
	}
	if len(dates) == 0 {
		return filter, domain.ErrNotFound
	}
	filter.SnapshotDate = dates[0].Format("2006-01-02")
	return filter, nil
}

func (s *InventoryService) GetDashboard(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryDashboard, error) {
	filter, err := s.resolveDate(ctx, filter)
	if err != nil {
		return nil, err
	}

	if dashboard, ok, err := s.cache.GetDashboard(ctx, filter); err == nil && ok {
		return dashboard, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get dashboard failed")
	}

	warehouses, err := s.repo.GetWarehouseSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	if warehouses == nil {
		warehouses = make([]domain.WarehouseSummary, 0)
	}

	states, err := s.repo.GetStateSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	if states == nil {
		states = make([]domain.StateSummary, 0)
	}

	totals, err := s.GetDailyTotals(ctx, defaultDailyTotals)
	if err != nil {
		return nil, err
	}

	dashboard := &domain.InventoryDashboard{
		SnapshotDate: filter.SnapshotDate,
		Warehouses:   warehouses,
		States:       states,
		DailyTotals:  totals,
	}

	if err := s.cache.SetDashboard(ctx, filter, dashboard); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set dashboard failed")
	}

	return dashboard, nil
}

func (s *InventoryService) GetItems(ctx context.Context, filter domain.InventoryFilter) (*domain.AllocationItemsResponse, error) {
	filter, err := s.resolveDate(ctx, filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.GetAllocationItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]domain.EnrichedRow, 0)
	}

	totalPages := 0
	if filter.PageSize > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}

	return &domain.AllocationItemsResponse{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *InventoryService) GetDailyTotals(ctx context.Context, limit int) ([]domain.DailyTotal, error) {
	if s.series == nil {
		return make([]domain.DailyTotal, 0), nil
	}
	totals, err := s.series.GetDailyTotals(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	if totals == nil {
		totals = make([]domain.DailyTotal, 0)
	}
	return totals, nil
}

func (s *InventoryService) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.repo.GetAvailableDates(ctx, limit)
}

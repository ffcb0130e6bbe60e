package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/api/middleware"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	dates      []time.Time
	lastFilter domain.InventoryFilter
}

func (s *stubRepo) SaveAllocations(context.Context, time.Time, []domain.EnrichedRow) error {
	return nil
}

func (s *stubRepo) GetWarehouseSummary(_ context.Context, f domain.InventoryFilter) ([]domain.WarehouseSummary, error) {
	s.lastFilter = f
	return []domain.WarehouseSummary{{Warehouse: "BLNJ", TotalAvailable: 7}}, nil
}

func (s *stubRepo) GetStateSummary(context.Context, domain.InventoryFilter) ([]domain.StateSummary, error) {
	return []domain.StateSummary{{State: "in_stock", Label: "In Stock", Count: 1}}, nil
}

func (s *stubRepo) GetAllocationItems(_ context.Context, f domain.InventoryFilter) ([]domain.EnrichedRow, int, error) {
	s.lastFilter = f
	return []domain.EnrichedRow{{AllocationRow: domain.AllocationRow{SKU: "A"}}}, 1, nil
}

func (s *stubRepo) GetAvailableDates(context.Context, int) ([]time.Time, error) {
	return s.dates, nil
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewInventoryService(repo, nil, nil)
	return NewRouter(&Services{InventoryService: svc}, nil)
}

func get(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ==================== Routes ====================

func TestDashboard(t *testing.T) {
	repo := &stubRepo{dates: []time.Time{time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)}}
	rec := get(t, newTestRouter(repo), "/api/v1/inventory/dashboard?warehouse=blnj")

	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.InventoryDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-01-11", body.SnapshotDate)
	assert.Equal(t, "BLNJ", repo.lastFilter.Warehouse)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestDashboard_NothingPublished(t *testing.T) {
	rec := get(t, newTestRouter(&stubRepo{}), "/api/v1/inventory/dashboard")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItems_Filters(t *testing.T) {
	repo := &stubRepo{}
	rec := get(t, newTestRouter(repo), "/api/v1/inventory/items?snapshot_date=2026-01-11&skus=A,B&sku=A&state=Oversold&page=2&page_size=10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A", "B"}, repo.lastFilter.SKUs)
	assert.Equal(t, "oversold", repo.lastFilter.State)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
}

func TestItems_BadWarehouse(t *testing.T) {
	rec := get(t, newTestRouter(&stubRepo{}), "/api/v1/inventory/items?warehouse=nowhere")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStates(t *testing.T) {
	rec := get(t, newTestRouter(&stubRepo{}), "/api/v1/inventory/states")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Catalog Only")
}

func TestRequestID_Propagated(t *testing.T) {
	router := newTestRouter(&stubRepo{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get(middleware.RequestIDHeader))
}

// ==================== CORS ====================

func TestNormalizeAllowedOrigins(t *testing.T) {
	parsed, all := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " "})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parsed)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}

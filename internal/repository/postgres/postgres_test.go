package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Filters ====================

func TestBuildInventoryFilterClause_Empty(t *testing.T) {
	clause, args, next := buildInventoryFilterClause(domain.InventoryFilter{}, "a", 1)
	assert.Empty(t, clause)
	assert.Nil(t, args)
	assert.Equal(t, 1, next)
}

func TestBuildInventoryFilterClause_All(t *testing.T) {
	filter := domain.InventoryFilter{
		SnapshotDate: "2026-01-11",
		SKUs:         []string{"A", "B"},
		Warehouse:    "la",
		State:        "oversold",
		Collection:   "Home",
	}

	clause, args, next := buildInventoryFilterClause(filter, "a", 3)

	assert.Equal(t,
		" AND a.snapshot_date = $3::date AND a.sku IN ($4,$5) AND a.chosen_warehouse = $6 AND a.state = $7 AND a.collection ILIKE $8",
		clause)
	assert.Equal(t, []interface{}{"2026-01-11", "A", "B", "LA", "oversold", "Home"}, args)
	assert.Equal(t, 9, next)
}

func TestNormalizeAlias(t *testing.T) {
	assert.Equal(t, "", normalizeAlias(""))
	assert.Equal(t, "a.", normalizeAlias("a"))
	assert.Equal(t, "a.", normalizeAlias("a."))
}

// ==================== Inserts ====================

func TestBuildAllocationInsert(t *testing.T) {
	date := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	rows := []domain.EnrichedRow{
		{AllocationRow: domain.AllocationRow{SKU: "A", UPC: "123456789012"}, Weight: decimal.Zero, Cost: decimal.Zero},
		{AllocationRow: domain.AllocationRow{SKU: "B", UPC: "123456789013"}, Weight: decimal.Zero, Cost: decimal.Zero},
	}

	query, args := buildAllocationInsert(date, rows)

	require.Len(t, args, 2*len(allocationColumns))
	assert.True(t, strings.HasPrefix(query, "INSERT INTO inventory_allocations (snapshot_date, sku"))
	assert.Contains(t, query, "($19, $20,")
	assert.Contains(t, query, "$36)")
	assert.Equal(t, "B", args[len(allocationColumns)+1])
}

func TestBuildSeriesUpsert(t *testing.T) {
	series := []domain.Snapshot{
		{SKU: "A", TotalAvailable: 3, Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Weight: decimal.Zero},
		{SKU: "A", TotalAvailable: 4, Date: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), Weight: decimal.Zero},
	}

	query, args := buildSeriesUpsert(series)

	assert.Contains(t, query, "($7, $8, $9, $10::date, $11, $12)")
	assert.Contains(t, query, "ON CONFLICT (sku, snapshot_date)")
	require.Len(t, args, 12)
	assert.Equal(t, "2026-01-11", args[9])
}

func TestCalendarDate(t *testing.T) {
	zone := time.FixedZone("x", 3600)
	got := calendarDate(time.Date(2026, 1, 11, 0, 0, 0, 0, zone))
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), got)
}

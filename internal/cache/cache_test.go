package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Redis options ====================

func TestBuildRedisOptions_Defaults(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestBuildRedisOptions_URL(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, defaultCacheTTL, cacheTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, cacheTTL(config.CacheConfig{DashboardTTLSeconds: 90}))
}

// ==================== Dashboard keys ====================

func TestBuildDashboardKey(t *testing.T) {
	assert.Equal(t, dashboardKeyPrefix+":default", buildDashboardKey(domain.InventoryFilter{}))
	assert.Equal(t, dashboardKeyPrefix+":default", buildDashboardKey(domain.InventoryFilter{Page: 3, PageSize: 50}))

	a := buildDashboardKey(domain.InventoryFilter{SKUs: []string{"B", "A"}, Warehouse: "la"})
	b := buildDashboardKey(domain.InventoryFilter{SKUs: []string{"A", "B"}, Warehouse: "LA"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, buildDashboardKey(domain.InventoryFilter{SKUs: []string{"A"}}))
}

func TestNoopDashboardCache(t *testing.T) {
	c, err := NewDashboardCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, c.SetDashboard(context.Background(), domain.InventoryFilter{}, &domain.InventoryDashboard{}))
	got, ok, err := c.GetDashboard(context.Background(), domain.InventoryFilter{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateAll(context.Background()))
}

// ==================== Run lock ====================

func TestRunLockKey(t *testing.T) {
	assert.Equal(t, "inventory:run:2026-01-11", runLockKey(time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC)))
}

func TestNoopRunLock(t *testing.T) {
	lock := NewRunLock(nil, 0)

	release, err := lock.Acquire(context.Background(), time.Now())
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
}

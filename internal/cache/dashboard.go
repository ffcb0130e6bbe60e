package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const dashboardKeyPrefix = "inventory:dashboard"

// DashboardCache stores rendered dashboards per filter. A new published run
// invalidates every entry.
type DashboardCache interface {
	GetDashboard(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryDashboard, bool, error)
	SetDashboard(ctx context.Context, filter domain.InventoryFilter, dashboard *domain.InventoryDashboard) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisDashboardCache(client, cacheTTL(cfg)), nil
}

func NewRedisDashboardCache(client *redis.Client, ttl time.Duration) DashboardCache {
	return &redisDashboardCache{client: client, ttl: ttl}
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetDashboard(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryDashboard, bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.InventoryDashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &dashboard, true, nil
}

func (c *redisDashboardCache) SetDashboard(ctx context.Context, filter domain.InventoryFilter, dashboard *domain.InventoryDashboard) error {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDashboardKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) GetDashboard(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryDashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetDashboard(ctx context.Context, filter domain.InventoryFilter, dashboard *domain.InventoryDashboard) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildDashboardKey hashes the filter fields that shape a dashboard. Paging
// does not.
func buildDashboardKey(filter domain.InventoryFilter) string {
	var parts []string
	if filter.SnapshotDate != "" {
		parts = append(parts, "date="+filter.SnapshotDate)
	}
	if len(filter.SKUs) > 0 {
		skus := append([]string(nil), filter.SKUs...)
		sort.Strings(skus)
		parts = append(parts, "skus="+strings.Join(skus, ","))
	}
	if filter.Warehouse != "" {
		parts = append(parts, "warehouse="+strings.ToUpper(filter.Warehouse))
	}
	if filter.State != "" {
		parts = append(parts, "state="+filter.State)
	}
	if filter.Collection != "" {
		parts = append(parts, "collection="+strings.ToLower(filter.Collection))
	}

	if len(parts) == 0 {
		return dashboardKeyPrefix + ":default"
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, hex.EncodeToString(hash[:]))
}

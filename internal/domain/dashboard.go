package domain

import "time"

// InventoryFilter narrows allocation queries served by the API.
type InventoryFilter struct {
	SnapshotDate string
	SKUs         []string
	Warehouse    string
	State        string
	Collection   string
	Page         int
	PageSize     int
}

// WarehouseSummary aggregates availability per warehouse for a snapshot date.
type WarehouseSummary struct {
	Warehouse      string `json:"warehouse" db:"warehouse"`
	SKUCount       int    `json:"sku_count" db:"sku_count"`
	TotalAvailable int    `json:"total_available" db:"total_available"`
	TotalQuota     int    `json:"total_quota" db:"total_quota"`
}

// StateSummary counts allocation rows per stock state.
type StateSummary struct {
	State string `json:"state" db:"state"`
	Label string `json:"label" db:"-"`
	Count int    `json:"count" db:"count"`
}

// InventoryDashboard bundles everything the dashboard view needs.
type InventoryDashboard struct {
	SnapshotDate string             `json:"snapshot_date"`
	Warehouses   []WarehouseSummary `json:"warehouses"`
	States       []StateSummary     `json:"states"`
	DailyTotals  []DailyTotal       `json:"daily_totals"`
}

// AllocationItemsResponse is the paginated allocation listing.
type AllocationItemsResponse struct {
	Items      []EnrichedRow `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// RunSummary is the outcome of one pipeline run, as published to consumers.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	SnapshotDate  time.Time      `json:"snapshot_date"`
	MergedRecords int            `json:"merged_records"`
	DroppedUPCs   int            `json:"dropped_upcs"`
	RejectedRows  int            `json:"rejected_rows"`
	Allocations   int            `json:"allocations"`
	Oversold      int            `json:"oversold"`
	Unresolved    int            `json:"unresolved"`
	DailyTotals   []DailyTotal   `json:"daily_totals"`
	Alert         *AlertEvent    `json:"alert,omitempty"`
	ByDescription map[string]int `json:"inventory_by_description"`
}

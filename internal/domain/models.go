package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MissingSKU marks a record whose SKU has to be resolved later by UPC.
const MissingSKU = "Missing_SKU_"

// InventoryRecord is one warehouse's count for one product.
type InventoryRecord struct {
	SKU          string      `json:"sku"`
	UPC          string      `json:"upc"`
	WarehouseID  WarehouseID `json:"warehouse_id"`
	Source       Source      `json:"source"`
	OnHandQty    int         `json:"on_hand_qty"`
	AvailableQty int         `json:"available_qty"`
	PendingQty   int         `json:"pending_qty"`
}

// CatalogEntry is a row of the SKU master list.
type CatalogEntry struct {
	SKU         string          `json:"sku"`
	UPC         string          `json:"upc"`
	Description string          `json:"description"`
	Collection  string          `json:"collection"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Weight      decimal.Decimal `json:"weight"`
}

// QuotaEntry reserves QuotaAmount units of a SKU for a retail partner.
type QuotaEntry struct {
	SKU    string `json:"sku"`
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}

// PriceEntry carries the unit cost of a SKU.
type PriceEntry struct {
	SKU  string          `json:"sku"`
	Cost decimal.Decimal `json:"cost"`
}

// ShopifySKU is a row of the storefront SKU/UPC export.
type ShopifySKU struct {
	SKU string `json:"sku"`
	UPC string `json:"upc"`
}

// WarehouseQty maps warehouses to quantities. It is stored as JSON.
type WarehouseQty map[WarehouseID]int

// Sum adds quantities over the given warehouses.
func (q WarehouseQty) Sum(warehouses []WarehouseID) int {
	total := 0
	for _, w := range warehouses {
		total += q[w]
	}
	return total
}

func (q WarehouseQty) Value() (driver.Value, error) {
	if q == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(q)
}

func (q *WarehouseQty) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*q = WarehouseQty{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported warehouse qty type %T", src)
	}
	out := WarehouseQty{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode warehouse qty: %w", err)
	}
	*q = out
	return nil
}

// AllocationRow is the per-(SKU, UPC) result of the allocator.
type AllocationRow struct {
	SKU             string       `json:"sku" db:"sku"`
	UPC             string       `json:"upc" db:"upc"`
	Available       WarehouseQty `json:"available" db:"available"`
	QuotaLabel      string       `json:"quota_label" db:"quota_label"`
	QuotaAmount     int          `json:"quota_amount" db:"quota_amount"`
	ChosenWarehouse WarehouseID  `json:"chosen_warehouse" db:"chosen_warehouse"`
	Remaining       WarehouseQty `json:"remaining" db:"remaining"`
	TotalInventory  int          `json:"total_inventory" db:"total_inventory"`
	TotalAvailable  int          `json:"total_available" db:"total_available"`
	State           StockState   `json:"state" db:"state"`
	Oversold        bool         `json:"oversold" db:"oversold"`
}

// EnrichedRow is an allocation row joined with catalog attributes and cost.
type EnrichedRow struct {
	AllocationRow
	Description string          `json:"description" db:"description"`
	Collection  string          `json:"collection" db:"collection"`
	Color       string          `json:"color" db:"color"`
	Size        string          `json:"size" db:"size"`
	Weight      decimal.Decimal `json:"weight" db:"weight"`
	Cost        decimal.Decimal `json:"cost" db:"cost"`
}

// Snapshot is one SKU's total available quantity on one calendar date.
type Snapshot struct {
	SKU            string          `json:"sku" db:"sku"`
	TotalAvailable int             `json:"total_available" db:"total_available"`
	Collection     string          `json:"collection" db:"collection"`
	Date           time.Time       `json:"date" db:"snapshot_date"`
	Color          string          `json:"color" db:"color"`
	Weight         decimal.Decimal `json:"weight" db:"weight"`
}

// DailyTotal is the sum of TotalAvailable across SKUs for a date.
type DailyTotal struct {
	Date           time.Time `json:"date" db:"snapshot_date"`
	TotalAvailable int       `json:"total_available" db:"total_available"`
}

// AlertEvent is raised when the day-over-day swing crosses the threshold.
type AlertEvent struct {
	Difference int    `json:"difference"`
	Date       string `json:"date"`
}

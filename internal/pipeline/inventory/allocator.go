package inventory

import (
	"sort"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// Allocator picks one fulfillment warehouse per (SKU, UPC) and applies quota.
type Allocator struct {
	// Warehouses is the fixed column order; earlier entries win ties.
	Warehouses []domain.WarehouseID
}

// AllocationResult carries allocation rows plus data-quality counters.
type AllocationResult struct {
	Rows []domain.AllocationRow
	// Resolved and Unresolved count sentinel SKUs that were or were not
	// matched by UPC against the storefront export.
	Resolved   int
	Unresolved int
	// Ignored counts records for warehouses outside the priority list.
	Ignored int
}

func NewAllocator(priority []domain.WarehouseID) *Allocator {
	if len(priority) == 0 {
		priority = domain.DefaultWarehousePriority
	}
	return &Allocator{Warehouses: append([]domain.WarehouseID(nil), priority...)}
}

type pivotKey struct {
	SKU string
	UPC string
}

// Allocate runs sentinel resolution, pivot, quota join, argmax selection and
// the full outer join with the storefront export. Output is sorted by (SKU, UPC).
func (a *Allocator) Allocate(records []domain.InventoryRecord, quotas []domain.QuotaEntry, shopify []domain.ShopifySKU) AllocationResult {
	var res AllocationResult

	skuByUPC := make(map[string]string, len(shopify))
	for _, s := range shopify {
		if s.UPC == "" {
			continue
		}
		if _, ok := skuByUPC[s.UPC]; !ok {
			skuByUPC[s.UPC] = s.SKU
		}
	}

	known := make(map[domain.WarehouseID]struct{}, len(a.Warehouses))
	for _, w := range a.Warehouses {
		known[w] = struct{}{}
	}

	pivot := make(map[pivotKey]domain.WarehouseQty)
	for _, r := range records {
		if r.SKU == domain.MissingSKU {
			if sku, ok := skuByUPC[r.UPC]; ok {
				r.SKU = sku
				res.Resolved++
			} else {
				res.Unresolved++
			}
		}
		if _, ok := known[r.WarehouseID]; !ok {
			res.Ignored++
			continue
		}
		key := pivotKey{SKU: r.SKU, UPC: r.UPC}
		qty, ok := pivot[key]
		if !ok {
			qty = make(domain.WarehouseQty, len(a.Warehouses))
			pivot[key] = qty
		}
		qty[r.WarehouseID] += r.AvailableQty
	}

	quotaBySKU := make(map[string]domain.QuotaEntry, len(quotas))
	for _, q := range quotas {
		if _, ok := quotaBySKU[q.SKU]; !ok {
			quotaBySKU[q.SKU] = q
		}
	}

	inventorySKUs := make(map[string]struct{}, len(pivot))
	rows := make([]domain.AllocationRow, 0, len(pivot)+len(shopify))
	for key, available := range pivot {
		inventorySKUs[key.SKU] = struct{}{}
		rows = append(rows, a.allocateRow(key, available, quotaBySKU[key.SKU]))
	}

	// Storefront SKUs with no inventory still get a row so consumers can see
	// catalog-only products.
	for _, s := range shopify {
		if _, ok := inventorySKUs[s.SKU]; ok {
			continue
		}
		rows = append(rows, a.catalogOnlyRow(s))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].UPC < rows[j].UPC
	})

	res.Rows = rows
	return res
}

func (a *Allocator) allocateRow(key pivotKey, available domain.WarehouseQty, quota domain.QuotaEntry) domain.AllocationRow {
	row := domain.AllocationRow{
		SKU:         key.SKU,
		UPC:         key.UPC,
		Available:   make(domain.WarehouseQty, len(a.Warehouses)),
		Remaining:   make(domain.WarehouseQty, len(a.Warehouses)),
		QuotaLabel:  quota.Label,
		QuotaAmount: quota.Amount,
	}
	for _, w := range a.Warehouses {
		row.Available[w] = available[w]
	}

	row.ChosenWarehouse = a.ChooseWarehouse(row.Available)
	for _, w := range a.Warehouses {
		row.Remaining[w] = row.Available[w]
	}
	row.Remaining[row.ChosenWarehouse] -= row.QuotaAmount

	row.TotalInventory = row.Available.Sum(a.Warehouses)
	row.TotalAvailable = row.Remaining.Sum(a.Warehouses)
	for _, w := range a.Warehouses {
		if row.Remaining[w] < 0 {
			row.Oversold = true
			break
		}
	}
	row.State = classify(row)
	return row
}

func (a *Allocator) catalogOnlyRow(s domain.ShopifySKU) domain.AllocationRow {
	row := domain.AllocationRow{
		SKU:       s.SKU,
		UPC:       s.UPC,
		Available: make(domain.WarehouseQty, len(a.Warehouses)),
		Remaining: make(domain.WarehouseQty, len(a.Warehouses)),
		State:     domain.StateCatalogOnly,
	}
	for _, w := range a.Warehouses {
		row.Available[w] = 0
		row.Remaining[w] = 0
	}
	return row
}

// ChooseWarehouse returns the warehouse with the largest quantity. Ties
// resolve to the earliest warehouse in priority order.
func (a *Allocator) ChooseWarehouse(available domain.WarehouseQty) domain.WarehouseID {
	if len(a.Warehouses) == 0 {
		return ""
	}
	best := a.Warehouses[0]
	for _, w := range a.Warehouses[1:] {
		if available[w] > available[best] {
			best = w
		}
	}
	return best
}

func classify(row domain.AllocationRow) domain.StockState {
	switch {
	case row.Oversold:
		return domain.StateOversold
	case row.TotalInventory <= 0:
		return domain.StateOutOfStock
	default:
		return domain.StateInStock
	}
}

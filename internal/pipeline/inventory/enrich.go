package inventory

import (
	"strconv"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Enrich left-joins allocation rows with catalog attributes and cost.
// Unmatched rows keep empty strings and zero decimals.
func Enrich(rows []domain.AllocationRow, catalog []domain.CatalogEntry, prices []domain.PriceEntry) []domain.EnrichedRow {
	bySKU := make(map[string]domain.CatalogEntry, len(catalog))
	for _, c := range catalog {
		bySKU[c.SKU] = c
	}
	costBySKU := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		if _, ok := costBySKU[p.SKU]; !ok {
			costBySKU[p.SKU] = p.Cost
		}
	}

	out := make([]domain.EnrichedRow, 0, len(rows))
	for _, r := range rows {
		e := domain.EnrichedRow{AllocationRow: r, Weight: decimal.Zero, Cost: decimal.Zero}
		if c, ok := bySKU[r.SKU]; ok {
			e.Description = c.Description
			e.Collection = c.Collection
			e.Color = c.Color
			e.Size = c.Size
			e.Weight = c.Weight
		}
		if cost, ok := costBySKU[r.SKU]; ok {
			e.Cost = cost
		}
		out = append(out, e)
	}
	return out
}

// ExportColumns is the fixed, ordered header of the final SKU table.
func ExportColumns(warehouses []domain.WarehouseID) []string {
	cols := []string{"SKU", "UPC", "Color", "Size (Inch)", "Weight (lbs)", "Product Description", "Collection"}
	for _, w := range warehouses {
		cols = append(cols, string(w))
	}
	cols = append(cols, "Quota", "Total Inventory", "Quota Amount", "Warehouse")
	for _, w := range warehouses {
		cols = append(cols, "Updated_"+string(w))
	}
	return append(cols, "Total Available", "Cost", "Oversold")
}

// ExportTable renders enriched rows under ExportColumns.
func ExportTable(rows []domain.EnrichedRow, warehouses []domain.WarehouseID) dataset.Table {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{r.SKU, r.UPC, r.Color, r.Size, r.Weight.String(), r.Description, r.Collection}
		for _, w := range warehouses {
			rec = append(rec, strconv.Itoa(r.Available[w]))
		}
		label := r.QuotaLabel
		if label == "" {
			label = "0"
		}
		rec = append(rec, label, strconv.Itoa(r.TotalInventory), strconv.Itoa(r.QuotaAmount), string(r.ChosenWarehouse))
		for _, w := range warehouses {
			rec = append(rec, strconv.Itoa(r.Remaining[w]))
		}
		rec = append(rec, strconv.Itoa(r.TotalAvailable), r.Cost.String(), strconv.FormatBool(r.Oversold))
		out = append(out, rec)
	}
	return dataset.New(ExportColumns(warehouses), out)
}

// InventoryByDescription maps product description to total inventory. Later
// rows overwrite earlier ones for the same description.
func InventoryByDescription(rows []domain.EnrichedRow) map[string]int {
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Description] = r.TotalInventory
	}
	return out
}

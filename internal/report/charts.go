// Package report turns pipeline outputs into chart data and workbooks.
package report

import (
	"sort"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// Bar is one bar of a chart. Detail carries a secondary label such as the
// product description of a SKU.
type Bar struct {
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Value  int    `json:"value"`
}

// Stacked is a stacked bar chart: one value per category for every series.
type Stacked struct {
	Categories []string        `json:"categories"`
	Series     []StackedSeries `json:"series"`
}

type StackedSeries struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// Charts is the full set of charts produced for a run.
type Charts struct {
	WarehouseAvailability []Bar   `json:"warehouse_availability"`
	QuotaBySKU            []Bar   `json:"quota_by_sku"`
	InventoryBySKU        []Bar   `json:"inventory_by_sku"`
	RemainingBLNJ         []Bar   `json:"remaining_blnj"`
	StackedAvailability   Stacked `json:"stacked_availability"`
}

// BuildCharts computes every chart from the merged records and the enriched
// allocation.
func BuildCharts(merged []domain.InventoryRecord, rows []domain.EnrichedRow, catalog []domain.CatalogEntry) Charts {
	allocation := make([]domain.AllocationRow, 0, len(rows))
	for _, r := range rows {
		allocation = append(allocation, r.AllocationRow)
	}
	return Charts{
		WarehouseAvailability: WarehouseAvailability(merged),
		QuotaBySKU:            QuotaBySKU(allocation),
		InventoryBySKU:        InventoryBySKU(rows),
		RemainingBLNJ:         RemainingByDescription(rows, domain.WarehouseBLNJ),
		StackedAvailability:   StackedAvailability(merged, catalog),
	}
}

// WarehouseAvailability sums available units per warehouse, largest first.
func WarehouseAvailability(merged []domain.InventoryRecord) []Bar {
	totals := make(map[string]int)
	for _, r := range merged {
		totals[strings.ToUpper(string(r.WarehouseID))] += r.AvailableQty
	}
	return sortedBars(totals, nil)
}

// QuotaBySKU sums quota per SKU, keeping SKUs with a positive total.
func QuotaBySKU(rows []domain.AllocationRow) []Bar {
	totals := make(map[string]int)
	for _, r := range rows {
		totals[r.SKU] += r.QuotaAmount
	}
	for sku, v := range totals {
		if v <= 0 {
			delete(totals, sku)
		}
	}
	return sortedBars(totals, nil)
}

// InventoryBySKU sums total inventory per SKU with the first description seen.
func InventoryBySKU(rows []domain.EnrichedRow) []Bar {
	totals := make(map[string]int)
	details := make(map[string]string)
	for _, r := range rows {
		totals[r.SKU] += r.TotalInventory
		if _, ok := details[r.SKU]; !ok {
			details[r.SKU] = r.Description
		}
	}
	return sortedBars(totals, details)
}

// RemainingByDescription sums what is left in one warehouse after quota, per
// product description.
func RemainingByDescription(rows []domain.EnrichedRow, warehouse domain.WarehouseID) []Bar {
	totals := make(map[string]int)
	for _, r := range rows {
		totals[r.Description] += r.Remaining[warehouse]
	}
	return sortedBars(totals, nil)
}

// StackedAvailability groups available units by product description and
// warehouse. Records without a catalog match fall under their SKU.
func StackedAvailability(merged []domain.InventoryRecord, catalog []domain.CatalogEntry) Stacked {
	descriptions := make(map[string]string, len(catalog))
	for _, c := range catalog {
		if _, ok := descriptions[c.SKU]; !ok {
			descriptions[c.SKU] = c.Description
		}
	}

	cells := make(map[string]map[string]int)
	warehouses := make(map[string]struct{})
	for _, r := range merged {
		category := descriptions[r.SKU]
		if category == "" {
			category = r.SKU
		}
		w := strings.ToUpper(string(r.WarehouseID))
		if cells[category] == nil {
			cells[category] = make(map[string]int)
		}
		cells[category][w] += r.AvailableQty
		warehouses[w] = struct{}{}
	}

	out := Stacked{Categories: sortedKeys(cells)}
	for _, w := range sortedKeys(warehouses) {
		s := StackedSeries{Name: w, Values: make([]int, len(out.Categories))}
		for i, c := range out.Categories {
			s.Values[i] = cells[c][w]
		}
		out.Series = append(out.Series, s)
	}
	return out
}

func sortedBars(totals map[string]int, details map[string]string) []Bar {
	bars := make([]Bar, 0, len(totals))
	for label, v := range totals {
		bars = append(bars, Bar{Label: label, Detail: details[label], Value: v})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
	return bars
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

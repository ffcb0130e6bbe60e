package inventory

import (
	"strconv"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// MergeResult is the concatenated inventory of all sources. Dropped counts
// records whose UPC failed the 12+ digit check.
type MergeResult struct {
	Records []domain.InventoryRecord
	Dropped int
}

// Merge concatenates source records in the given order, normalizes UPCs and
// keeps only those matching ^\d{12,}$. Records are not deduplicated.
func Merge(sources ...[]domain.InventoryRecord) MergeResult {
	total := 0
	for _, s := range sources {
		total += len(s)
	}

	res := MergeResult{Records: make([]domain.InventoryRecord, 0, total)}
	for _, records := range sources {
		for _, r := range records {
			r.UPC = NormalizeUPC(r.UPC)
			if !IsValidUPC(r.UPC) {
				res.Dropped++
				continue
			}
			res.Records = append(res.Records, r)
		}
	}
	return res
}

// MergedColumns is the header of the merged inventory export.
var MergedColumns = []string{"UPCCODE", "WAREHOUSEID", "SKU", "ACTUALQTY", "AVAILABLE", "PENDINGPICKING", "SOURCE"}

// MergedTable renders merged records for the intermediate layer.
func MergedTable(records []domain.InventoryRecord) dataset.Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.UPC,
			string(r.WarehouseID),
			r.SKU,
			strconv.Itoa(r.OnHandQty),
			strconv.Itoa(r.AvailableQty),
			strconv.Itoa(r.PendingQty),
			string(r.Source),
		})
	}
	return dataset.New(MergedColumns, rows)
}

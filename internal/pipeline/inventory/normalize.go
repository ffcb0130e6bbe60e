package inventory

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// NormalizeResult holds the canonical records of one source plus the rows it rejected.
type NormalizeResult struct {
	Source   domain.Source
	Records  []domain.InventoryRecord
	Rejected []*domain.RowError
	Inactive int
}

// Normalizer maps one vendor extract onto InventoryRecord.
type Normalizer interface {
	Source() domain.Source
	Normalize(t dataset.Table, upcs UPCLookup) NormalizeResult
}

// UPCLookup resolves catalog UPCs by SKU.
type UPCLookup map[string]string

// BergenNormalizer handles the Rex11 inventory export.
type BergenNormalizer struct {
	// WarehouseNames maps WAREHOUSENAME values onto warehouse codes.
	WarehouseNames map[string]domain.WarehouseID
}

// DefaultBergenWarehouses is the WAREHOUSENAME mapping used when none is configured.
func DefaultBergenWarehouses() map[string]domain.WarehouseID {
	return map[string]domain.WarehouseID{
		"Bergen Logistics NJ299": domain.WarehouseBLNJ,
	}
}

func NewBergenNormalizer(names map[string]domain.WarehouseID) *BergenNormalizer {
	if len(names) == 0 {
		names = DefaultBergenWarehouses()
	}
	return &BergenNormalizer{WarehouseNames: names}
}

func (n *BergenNormalizer) Source() domain.Source {
	return domain.SourceBergen
}

func (n *BergenNormalizer) Normalize(t dataset.Table, _ UPCLookup) NormalizeResult {
	res := NormalizeResult{Source: n.Source()}
	if t.Empty() {
		return res
	}

	idxWarehouse := t.Column("WAREHOUSENAME", "warehouse name", "warehouse")
	idxSKU := t.Column("SKU")
	idxUPC := t.Column("UPCCODE", "upc")
	idxActual := t.Column("ACTUALQTY", "actual quantity", "actual qty")
	idxPending := t.Column("PENDINGPICKING", "pending quantity", "pending qty")
	idxAvailable := t.Column("AVAILABLE", "available qty")

	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			res.Rejected = append(res.Rejected, &domain.RowError{Source: string(n.Source()), Row: row, Field: field, Err: err})
		}

		upc := NormalizeUPC(dataset.Value(record, idxUPC))
		if upc == "" {
			reject("UPCCODE", domain.ErrMissingIdentifier)
			continue
		}

		sku := dataset.Value(record, idxSKU)
		if sku == "" {
			sku = domain.MissingSKU
		}

		actual, err := parseQty(dataset.Value(record, idxActual))
		if err != nil {
			reject("ACTUALQTY", err)
			continue
		}
		pending, err := parseQty(dataset.Value(record, idxPending))
		if err != nil {
			reject("PENDINGPICKING", err)
			continue
		}

		available := actual - pending
		if raw := dataset.Value(record, idxAvailable); raw != "" {
			available, err = parseQty(raw)
			if err != nil {
				reject("AVAILABLE", err)
				continue
			}
		}

		if actual == 0 && pending == 0 {
			res.Inactive++
			continue
		}

		name := dataset.Value(record, idxWarehouse)
		warehouse, ok := n.WarehouseNames[name]
		if !ok {
			warehouse, ok = domain.ParseWarehouseID(name)
		}
		if !ok {
			reject("WAREHOUSENAME", fmt.Errorf("unknown warehouse %q: %w", name, domain.ErrMissingIdentifier))
			continue
		}

		res.Records = append(res.Records, domain.InventoryRecord{
			SKU:          sku,
			UPC:          upc,
			WarehouseID:  warehouse,
			Source:       n.Source(),
			OnHandQty:    actual,
			AvailableQty: available,
			PendingQty:   pending,
		})
	}

	return res
}

// TPLCentralNormalizer handles the 3PL Central stock summaries export.
type TPLCentralNormalizer struct {
	// LAFacilityID is the facility routed to 3PLC LA; every other facility is 3PLC NJ.
	LAFacilityID string
}

// DefaultLAFacilityID is the 3PL Central facility id of the Los Angeles warehouse.
const DefaultLAFacilityID = "659"

func NewTPLCentralNormalizer(laFacilityID string) *TPLCentralNormalizer {
	if strings.TrimSpace(laFacilityID) == "" {
		laFacilityID = DefaultLAFacilityID
	}
	return &TPLCentralNormalizer{LAFacilityID: strings.TrimSpace(laFacilityID)}
}

func (n *TPLCentralNormalizer) Source() domain.Source {
	return domain.SourceTPLCentral
}

func (n *TPLCentralNormalizer) Normalize(t dataset.Table, upcs UPCLookup) NormalizeResult {
	res := NormalizeResult{Source: n.Source()}
	if t.Empty() {
		return res
	}

	idxSKU := t.Column("SKU", "itemIdentifier.sku")
	idxAvailable := t.Column("AVAILABLE")
	idxOnHand := t.Column("onHand", "on hand")
	idxFacility := t.Column("facilityId", "facility id")

	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			res.Rejected = append(res.Rejected, &domain.RowError{Source: string(n.Source()), Row: row, Field: field, Err: err})
		}

		sku := dataset.Value(record, idxSKU)
		if sku == "" {
			reject("SKU", domain.ErrMissingIdentifier)
			continue
		}
		upc, ok := upcs[sku]
		if !ok || upc == "" {
			reject("UPC", fmt.Errorf("no catalog upc for sku %q: %w", sku, domain.ErrMissingIdentifier))
			continue
		}

		onHand, err := parseQty(dataset.Value(record, idxOnHand))
		if err != nil {
			reject("onHand", err)
			continue
		}
		available, err := parseQty(dataset.Value(record, idxAvailable))
		if err != nil {
			reject("AVAILABLE", err)
			continue
		}
		pending := onHand - available

		if onHand == 0 && pending == 0 {
			res.Inactive++
			continue
		}

		warehouse := domain.Warehouse3PLCNJ
		if NormalizeUPC(dataset.Value(record, idxFacility)) == n.LAFacilityID {
			warehouse = domain.Warehouse3PLCLA
		}

		res.Records = append(res.Records, domain.InventoryRecord{
			SKU:          sku,
			UPC:          upc,
			WarehouseID:  warehouse,
			Source:       n.Source(),
			OnHandQty:    onHand,
			AvailableQty: available,
			PendingQty:   pending,
		})
	}

	return res
}

// ThinkLogisticsNormalizer handles the Think Logistics partner inventory export.
type ThinkLogisticsNormalizer struct {
	// PrefixLen is the number of leading characters stripped from StockCode.
	PrefixLen int
}

func NewThinkLogisticsNormalizer() *ThinkLogisticsNormalizer {
	return &ThinkLogisticsNormalizer{PrefixLen: 2}
}

func (n *ThinkLogisticsNormalizer) Source() domain.Source {
	return domain.SourceThinkLogistics
}

func (n *ThinkLogisticsNormalizer) Normalize(t dataset.Table, upcs UPCLookup) NormalizeResult {
	res := NormalizeResult{Source: n.Source()}
	if t.Empty() {
		return res
	}

	idxCode := t.Column("StockCode", "stock code")
	idxOnHand := t.Column("OnHandQty", "on hand qty")
	idxAllocated := t.Column("AllocatedQty", "allocated qty")
	idxAvailable := t.Column("Available", "AvailQty")

	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			res.Rejected = append(res.Rejected, &domain.RowError{Source: string(n.Source()), Row: row, Field: field, Err: err})
		}

		sku := DecodeVendorSKU(dataset.Value(record, idxCode), n.PrefixLen)
		if sku == "" {
			reject("StockCode", domain.ErrMissingIdentifier)
			continue
		}
		upc, ok := upcs[sku]
		if !ok || upc == "" {
			reject("UPC", fmt.Errorf("no catalog upc for sku %q: %w", sku, domain.ErrMissingIdentifier))
			continue
		}

		onHand, err := parseQty(dataset.Value(record, idxOnHand))
		if err != nil {
			reject("OnHandQty", err)
			continue
		}
		pending, err := parseQty(dataset.Value(record, idxAllocated))
		if err != nil {
			reject("AllocatedQty", err)
			continue
		}
		available, err := parseQty(dataset.Value(record, idxAvailable))
		if err != nil {
			reject("Available", err)
			continue
		}

		if onHand == 0 && pending == 0 {
			res.Inactive++
			continue
		}

		res.Records = append(res.Records, domain.InventoryRecord{
			SKU:          sku,
			UPC:          upc,
			WarehouseID:  domain.WarehouseThinkLogistics,
			Source:       n.Source(),
			OnHandQty:    onHand,
			AvailableQty: available,
			PendingQty:   pending,
		})
	}

	return res
}

// CollapseSKU reduces a dash-delimited vendor code to the catalog form:
// with more than two segments the first two are joined, otherwise only the
// first segment is kept.
func CollapseSKU(code string) string {
	code = strings.TrimSpace(code)
	parts := strings.Split(code, "-")
	if len(parts) > 2 {
		return parts[0] + parts[1]
	}
	return parts[0]
}

// DecodeVendorSKU strips a fixed-length prefix and collapses the remainder.
// Codes not longer than the prefix decode to "".
func DecodeVendorSKU(code string, prefixLen int) string {
	code = strings.TrimSpace(code)
	if len(code) <= prefixLen {
		return ""
	}
	return CollapseSKU(code[prefixLen:])
}

package domain

import "strings"

// WarehouseID identifies a 3PL warehouse column in the allocation matrix.
type WarehouseID string

const (
	WarehouseBLNJ           WarehouseID = "BLNJ"
	Warehouse3PLCNJ         WarehouseID = "3PLC NJ"
	Warehouse3PLCLA         WarehouseID = "3PLC LA"
	WarehouseThinkLogistics WarehouseID = "THINKLOGISTICS"
)

// DefaultWarehousePriority is the fixed allocation order. Ties go to the
// earliest entry.
var DefaultWarehousePriority = []WarehouseID{
	WarehouseBLNJ,
	Warehouse3PLCNJ,
	Warehouse3PLCLA,
	WarehouseThinkLogistics,
}

// ParseWarehouseID matches a warehouse code case-insensitively.
func ParseWarehouseID(code string) (WarehouseID, bool) {
	code = strings.TrimSpace(code)
	for _, w := range DefaultWarehousePriority {
		if strings.EqualFold(string(w), code) {
			return w, true
		}
	}
	return "", false
}

// ParseWarehousePriority converts configured codes into a priority list,
// skipping unknown and duplicate entries.
func ParseWarehousePriority(codes []string) []WarehouseID {
	seen := make(map[WarehouseID]struct{}, len(codes))
	out := make([]WarehouseID, 0, len(codes))
	for _, raw := range codes {
		for _, part := range strings.Split(raw, ",") {
			w, ok := ParseWarehouseID(part)
			if !ok {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return append([]WarehouseID(nil), DefaultWarehousePriority...)
	}
	return out
}

// Source names the vendor feed an inventory record came from.
type Source string

const (
	SourceBergen         Source = "bergen"
	SourceTPLCentral     Source = "tplcentral"
	SourceThinkLogistics Source = "thinklogistics"
)

// StockState classifies an allocation row for downstream consumers.
type StockState string

const (
	StateInStock     StockState = "in_stock"
	StateOversold    StockState = "oversold"
	StateOutOfStock  StockState = "out_of_stock"
	StateCatalogOnly StockState = "catalog_only"
)

var stockStateLabels = map[StockState]string{
	StateInStock:     "In Stock",
	StateOversold:    "Oversold",
	StateOutOfStock:  "Out of Stock",
	StateCatalogOnly: "Catalog Only",
}

// StockStateLabel returns a human-readable label for a stock state.
func StockStateLabel(state StockState) string {
	if label, ok := stockStateLabels[state]; ok {
		return label
	}
	return "Unknown"
}

// ParseStockState returns the state for a given label or code (case-insensitive).
func ParseStockState(value string) (StockState, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for state, label := range stockStateLabels {
		if v == string(state) || v == strings.ToLower(label) {
			return state, true
		}
	}
	return "", false
}

// StockStates lists every state in display order.
func StockStates() []StockState {
	return []StockState{StateInStock, StateOversold, StateOutOfStock, StateCatalogOnly}
}

package inventory

import (
	"fmt"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Reference bundles the read-only tables a run joins against. It is built
// once per run and passed explicitly to every stage.
type Reference struct {
	Catalog []domain.CatalogEntry
	Quotas  []domain.QuotaEntry
	Prices  []domain.PriceEntry
	Shopify []domain.ShopifySKU

	Rejected []*domain.RowError
}

// UPCs indexes catalog UPCs by SKU.
func (r Reference) UPCs() UPCLookup {
	out := make(UPCLookup, len(r.Catalog))
	for _, c := range r.Catalog {
		out[c.SKU] = c.UPC
	}
	return out
}

// LoadReference normalizes the four reference extracts.
func LoadReference(catalog, quotas, prices, shopify dataset.Table) Reference {
	var ref Reference
	var rejected []*domain.RowError

	ref.Catalog, rejected = NormalizeCatalog(catalog)
	ref.Rejected = append(ref.Rejected, rejected...)
	ref.Quotas, rejected = NormalizeQuota(quotas)
	ref.Rejected = append(ref.Rejected, rejected...)
	ref.Prices, rejected = NormalizePrices(prices)
	ref.Rejected = append(ref.Rejected, rejected...)
	ref.Shopify, rejected = NormalizeShopify(shopify)
	ref.Rejected = append(ref.Rejected, rejected...)

	log.Info().
		Int("catalog", len(ref.Catalog)).
		Int("quotas", len(ref.Quotas)).
		Int("prices", len(ref.Prices)).
		Int("shopify", len(ref.Shopify)).
		Int("rejected", len(ref.Rejected)).
		Msg("reference tables loaded")

	return ref
}

// NormalizeCatalog drops rows missing SKU, UPC or Collection and keeps the
// last row per SKU, in first-seen order.
func NormalizeCatalog(t dataset.Table) ([]domain.CatalogEntry, []*domain.RowError) {
	if t.Empty() {
		return nil, nil
	}

	idxSKU := t.Column("SKU_standard", "SKU")
	idxUPC := t.Column("UPC", "UPCCODE")
	idxCollection := t.Column("Collection", "category")
	idxDescription := t.Column("Product Description", "description")
	idxColor := t.Column("Color")
	idxSize := t.Column("Size (Inch)", "size")
	idxWeight := t.Column("Weight (lbs)", "weight")

	var rejected []*domain.RowError
	index := make(map[string]int)
	var out []domain.CatalogEntry

	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			rejected = append(rejected, &domain.RowError{Source: "catalog", Row: row, Field: field, Err: err})
		}

		sku := dataset.Value(record, idxSKU)
		if sku == "" {
			reject("SKU", domain.ErrMissingIdentifier)
			continue
		}
		upc := NormalizeUPC(dataset.Value(record, idxUPC))
		if upc == "" {
			reject("UPC", domain.ErrMissingIdentifier)
			continue
		}
		collection := dataset.Value(record, idxCollection)
		if collection == "" {
			reject("Collection", domain.ErrMissingIdentifier)
			continue
		}
		weight, err := parseDecimal(dataset.Value(record, idxWeight))
		if err != nil {
			reject("Weight (lbs)", err)
			continue
		}

		entry := domain.CatalogEntry{
			SKU:         sku,
			UPC:         upc,
			Description: dataset.Value(record, idxDescription),
			Collection:  collection,
			Color:       dataset.Value(record, idxColor),
			Size:        dataset.Value(record, idxSize),
			Weight:      weight,
		}
		if pos, ok := index[sku]; ok {
			out[pos] = entry
			continue
		}
		index[sku] = len(out)
		out = append(out, entry)
	}

	return out, rejected
}

// NormalizeQuota collapses SKUs to catalog form and fills blank amounts with 0.
// Fractional amounts are rounded half away from zero.
// The first row per SKU wins; later duplicates are reported as ErrJoinAmbiguity.
func NormalizeQuota(t dataset.Table) ([]domain.QuotaEntry, []*domain.RowError) {
	if t.Empty() {
		return nil, nil
	}

	idxSKU := t.Column("SKU")
	idxLabel := t.Column("Quota")
	idxAmount := t.Column("Quota Amount", "amount")

	var rejected []*domain.RowError
	seen := make(map[string]int)
	var out []domain.QuotaEntry

	for i, record := range t.Rows {
		row := i + 1
		reject := func(field string, err error) {
			rejected = append(rejected, &domain.RowError{Source: "quota", Row: row, Field: field, Err: err})
		}

		sku := CollapseSKU(dataset.Value(record, idxSKU))
		if sku == "" {
			reject("SKU", domain.ErrMissingIdentifier)
			continue
		}
		raw, amount, err := parseAmount(dataset.Value(record, idxAmount))
		if err != nil {
			reject("Quota Amount", err)
			continue
		}
		if raw.IsNegative() {
			reject("Quota Amount", fmt.Errorf("negative amount %s: %w", raw, domain.ErrMalformedQuantity))
			continue
		}
		if first, ok := seen[sku]; ok {
			reject("SKU", fmt.Errorf("duplicate quota for %s (first at row %d): %w", sku, first, domain.ErrJoinAmbiguity))
			continue
		}
		seen[sku] = row

		out = append(out, domain.QuotaEntry{
			SKU:    sku,
			Label:  dataset.Value(record, idxLabel),
			Amount: amount,
		})
	}

	return out, rejected
}

// NormalizePrices reads the SKU/Cost table; the first row per SKU wins.
func NormalizePrices(t dataset.Table) ([]domain.PriceEntry, []*domain.RowError) {
	if t.Empty() {
		return nil, nil
	}

	idxSKU := t.Column("SKU")
	idxCost := t.Column("Cost", "price")

	var rejected []*domain.RowError
	seen := make(map[string]struct{})
	var out []domain.PriceEntry

	for i, record := range t.Rows {
		row := i + 1
		sku := dataset.Value(record, idxSKU)
		if sku == "" {
			rejected = append(rejected, &domain.RowError{Source: "price", Row: row, Field: "SKU", Err: domain.ErrMissingIdentifier})
			continue
		}
		cost, err := parseDecimal(dataset.Value(record, idxCost))
		if err != nil {
			rejected = append(rejected, &domain.RowError{Source: "price", Row: row, Field: "Cost", Err: err})
			continue
		}
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, domain.PriceEntry{SKU: sku, Cost: cost})
	}

	return out, rejected
}

// NormalizeShopify reads the storefront SKU/UPC export; the first row per SKU wins.
func NormalizeShopify(t dataset.Table) ([]domain.ShopifySKU, []*domain.RowError) {
	if t.Empty() {
		return nil, nil
	}

	idxSKU := t.Column("SKU")
	idxUPC := t.Column("UPCCODE", "UPC", "barcode")

	var rejected []*domain.RowError
	seen := make(map[string]struct{})
	var out []domain.ShopifySKU

	for i, record := range t.Rows {
		row := i + 1
		sku := dataset.Value(record, idxSKU)
		if sku == "" {
			rejected = append(rejected, &domain.RowError{Source: "shopify", Row: row, Field: "SKU", Err: domain.ErrMissingIdentifier})
			continue
		}
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, domain.ShopifySKU{SKU: sku, UPC: NormalizeUPC(dataset.Value(record, idxUPC))})
	}

	return out, rejected
}

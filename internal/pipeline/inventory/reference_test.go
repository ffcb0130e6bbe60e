package inventory_test

import (
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCatalog(t *testing.T) {
	table := dataset.New(
		[]string{"SKU_standard", "UPC", "Collection", "Product Description", "Color", "Size (Inch)", "Weight (lbs)"},
		[][]string{
			{"A", "123456789012", "Home", "Blanket", "Blue", "40x60", "15"},
			{"B", "", "Home", "Pillow", "", "", ""},
			{"C", "323456789012", "", "Throw", "", "", ""},
			{"A", "123456789012", "Home", "Blanket v2", "Blue", "40x60", "20"},
		},
	)

	entries, rejected := inventory.NormalizeCatalog(table)

	require.Len(t, entries, 1)
	assert.Equal(t, "Blanket v2", entries[0].Description)
	assert.True(t, entries[0].Weight.Equal(decimal.NewFromInt(20)))
	assert.Len(t, rejected, 2)
}

func TestNormalizeQuota(t *testing.T) {
	table := dataset.New(
		[]string{"SKU", "Quota", "Quota Amount"},
		[][]string{
			{"ABC-BLU-M", "Wholesale", "30"},
			{"DEF", "Retail", ""},
			{"ABC-BLU-L", "Wholesale", "10"},
			{"GHI", "Retail", "-1"},
		},
	)

	entries, rejected := inventory.NormalizeQuota(table)

	require.Len(t, entries, 2)
	assert.Equal(t, domain.QuotaEntry{SKU: "ABCBLU", Label: "Wholesale", Amount: 30}, entries[0])
	assert.Equal(t, 0, entries[1].Amount)
	require.Len(t, rejected, 2)
	assert.ErrorIs(t, rejected[0], domain.ErrJoinAmbiguity)
	assert.ErrorIs(t, rejected[1], domain.ErrMalformedQuantity)
}

func TestNormalizeQuota_FractionalAmounts(t *testing.T) {
	table := dataset.New(
		[]string{"SKU", "Quota", "Quota Amount"},
		[][]string{
			{"A", "Wholesale", "12.5"},
			{"B", "Retail", "7.0"},
			{"C", "Retail", "3.4"},
			{"D", "Retail", "-0.2"},
			{"E", "Retail", "many"},
		},
	)

	entries, rejected := inventory.NormalizeQuota(table)

	require.Len(t, entries, 3)
	assert.Equal(t, 13, entries[0].Amount)
	assert.Equal(t, 7, entries[1].Amount)
	assert.Equal(t, 3, entries[2].Amount)
	require.Len(t, rejected, 2)
	assert.ErrorIs(t, rejected[0], domain.ErrMalformedQuantity)
	assert.ErrorIs(t, rejected[1], domain.ErrMalformedQuantity)
}

func TestNormalizePricesAndShopify(t *testing.T) {
	prices, _ := inventory.NormalizePrices(dataset.New(
		[]string{"SKU", "Cost"},
		[][]string{{"A", "$1,250.50"}, {"A", "3"}},
	))
	require.Len(t, prices, 1)
	assert.True(t, prices[0].Cost.Equal(decimal.RequireFromString("1250.50")))

	shopify, rejected := inventory.NormalizeShopify(dataset.New(
		[]string{"SKU", "UPCCODE"},
		[][]string{{"X123", "012345678905"}, {"", "1"}},
	))
	require.Len(t, shopify, 1)
	assert.Equal(t, "012345678905", shopify[0].UPC)
	assert.Len(t, rejected, 1)
}

func TestReferenceUPCs(t *testing.T) {
	ref := inventory.Reference{Catalog: []domain.CatalogEntry{{SKU: "A", UPC: "123456789012"}}}
	assert.Equal(t, inventory.UPCLookup{"A": "123456789012"}, ref.UPCs())
}

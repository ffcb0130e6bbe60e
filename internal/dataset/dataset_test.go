package dataset_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestColumn_MatchesLoosely(t *testing.T) {
	table := dataset.New([]string{"\ufeffSKU", "Quota Amount", "Size (Inch)"}, nil)

	assert.Equal(t, 0, table.Column("sku"))
	assert.Equal(t, 1, table.Column("quota_amount"))
	assert.Equal(t, 2, table.Column("size inch"))
	assert.Equal(t, -1, table.Column("missing"))
	assert.Equal(t, -1, table.Column())
}

func TestValue_OutOfRange(t *testing.T) {
	record := []string{" a ", "b"}
	assert.Equal(t, "a", dataset.Value(record, 0))
	assert.Equal(t, "", dataset.Value(record, 5))
	assert.Equal(t, "", dataset.Value(record, -1))
}

func TestDecodeCSV(t *testing.T) {
	input := "SKU,UPC\nA,123\n,\nB\n"

	table, err := dataset.DecodeCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"SKU", "UPC"}, table.Header)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"B"}, table.Rows[1])
}

func TestDecodeCSV_Empty(t *testing.T) {
	table, err := dataset.DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestReadFile_Missing(t *testing.T) {
	_, err := dataset.ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	_, err = dataset.ReadFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"SKU", "UPC"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"A", "123456789012"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := dataset.ReadFile(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"SKU", "UPC"}, table.Header)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "123456789012", table.Rows[0][1])
}

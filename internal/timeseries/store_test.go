package timeseries_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/timeseries"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []domain.Snapshot {
	return []domain.Snapshot{
		{SKU: "A", TotalAvailable: 10, Collection: "Home", Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Color: "Red", Weight: decimal.RequireFromString("2")},
		{SKU: "A", TotalAvailable: 12, Collection: "Home", Date: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), Color: "Red", Weight: decimal.RequireFromString("2")},
	}
}

// ==================== FileStore ====================

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := timeseries.NewFileStore(filepath.Join(t.TempDir(), "series.csv"))

	series, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	store := timeseries.NewFileStore(filepath.Join(t.TempDir(), "nested", "series.csv"))

	require.NoError(t, store.Save(context.Background(), sample()))

	series, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 12, series[1].TotalAvailable)
	assert.True(t, series[1].Date.Equal(sample()[1].Date))
}

// ==================== SheetsStore ====================

type fakeRanges struct {
	tables  map[string]dataset.Table
	readErr error
}

func (f *fakeRanges) ReadRange(_ context.Context, _ string, rng string) (dataset.Table, error) {
	if f.readErr != nil {
		return dataset.Table{}, f.readErr
	}
	return f.tables[rng], nil
}

func (f *fakeRanges) WriteRange(_ context.Context, _ string, rng string, t dataset.Table) error {
	f.tables[rng] = t
	return nil
}

func TestSheetsStore_RoundTrip(t *testing.T) {
	client := &fakeRanges{tables: map[string]dataset.Table{}}
	store := timeseries.NewSheetsStore(client, "sheet-id", "Inventory Time Series")

	require.NoError(t, store.Save(context.Background(), sample()))
	assert.Equal(t, "Total Available", client.tables["Inventory Time Series"].Header[1])

	series, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestSheetsStore_SkipsBadRows(t *testing.T) {
	client := &fakeRanges{tables: map[string]dataset.Table{
		"ts": dataset.New(
			[]string{"SKU", "Total Available", "Collection", "Date", "Color", "Weight (lbs)"},
			[][]string{
				{"A", "5", "Home", "01/10/2026", "Red", "1"},
				{"B", "5", "Home", "not a date", "Red", "1"},
			}),
	}}

	series, err := timeseries.NewSheetsStore(client, "id", "ts").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "A", series[0].SKU)
}

func TestSheetsStore_LoadError(t *testing.T) {
	client := &fakeRanges{readErr: errors.New("quota exceeded")}

	_, err := timeseries.NewSheetsStore(client, "id", "ts").Load(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
}

// ==================== DBStore ====================

type fakeRepo struct {
	saved []domain.Snapshot
}

func (f *fakeRepo) LoadSeries(context.Context) ([]domain.Snapshot, error) { return f.saved, nil }
func (f *fakeRepo) SaveSeries(_ context.Context, s []domain.Snapshot) error {
	f.saved = s
	return nil
}
func (f *fakeRepo) GetDailyTotals(context.Context, int) ([]domain.DailyTotal, error) { return nil, nil }

func TestDBStore_Delegates(t *testing.T) {
	repo := &fakeRepo{}
	store := timeseries.NewDBStore(repo)

	require.NoError(t, store.Save(context.Background(), sample()))
	series, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/config"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_timeseries.sql", "001_runs.sql", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.sql"), 0o755))

	files, err := migrationFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001_runs.sql"), filepath.Join(dir, "002_timeseries.sql")}, files)
}

func TestBergenWarehouses(t *testing.T) {
	got := bergenWarehouses(config.PipelineConfig{BergenWarehouses: []string{"Bergen NJ=blnj", "Bergen XX=NOPE"}})
	assert.Equal(t, map[string]domain.WarehouseID{"Bergen NJ": domain.WarehouseBLNJ}, got)

	assert.NotEmpty(t, bergenWarehouses(config.PipelineConfig{}))
}

func TestNewFetchers_RawDir(t *testing.T) {
	fetchers := newFetchers(&config.Config{}, "/tmp/raw")

	require.Len(t, fetchers, 3)
	assert.Equal(t, domain.SourceBergen, fetchers[0].Source())
	assert.Equal(t, domain.SourceThinkLogistics, fetchers[2].Source())
}

func TestNewArchiver_Unconfigured(t *testing.T) {
	archiver, err := newArchiver(config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, archiver)
}

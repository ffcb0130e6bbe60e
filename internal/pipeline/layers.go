package pipeline

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/rs/zerolog/log"
)

// Data layers under IntermediateDir.
const (
	LayerRaw          = "01_raw"
	LayerIntermediate = "02_intermediate"
	LayerPrimary      = "03_primary"
	LayerReporting    = "08_reporting"
)

// LayerWriter persists named tables as CSV under
// <root>/<layer>/<YYYYMMDD>/<name>.csv and remembers what it wrote.
type LayerWriter struct {
	root    string
	date    time.Time
	enabled bool

	mu      sync.Mutex
	written []string
}

// NewLayerWriter creates a writer for one snapshot date. When enabled is
// false every write is a no-op.
func NewLayerWriter(root string, date time.Time, enabled bool) *LayerWriter {
	return &LayerWriter{root: root, date: date, enabled: enabled && root != ""}
}

// Path returns where a table would be written.
func (w *LayerWriter) Path(layer, name string) string {
	return filepath.Join(w.root, layer, w.date.Format("20060102"), name+".csv")
}

// Write stores t and returns its path, or "" when disabled.
func (w *LayerWriter) Write(layer, name string, t dataset.Table) (string, error) {
	if !w.enabled {
		return "", nil
	}

	path := w.Path(layer, name)
	if err := dataset.WriteCSV(path, t); err != nil {
		return "", fmt.Errorf("failed to write %s/%s: %w", layer, name, err)
	}

	w.mu.Lock()
	w.written = append(w.written, path)
	w.mu.Unlock()

	log.Debug().Str("layer", layer).Str("name", name).Int("rows", t.Len()).Str("path", path).Msg("layer written")
	return path, nil
}

// Written lists every path written so far.
func (w *LayerWriter) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.written...)
}

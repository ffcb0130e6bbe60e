package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPipeline struct {
	nodes []pipeline.Node
}

func (s staticPipeline) Name() string           { return "static" }
func (s staticPipeline) Nodes() []pipeline.Node { return s.nodes }

func ok(rows int) pipeline.NodeFunc {
	return func(ctx context.Context) (int, error) { return rows, nil }
}

func TestOrchestrator_AllNodesComplete(t *testing.T) {
	var order []string
	track := func(name string) pipeline.NodeFunc {
		return func(ctx context.Context) (int, error) {
			order = append(order, name)
			return 2, nil
		}
	}
	p := staticPipeline{nodes: []pipeline.Node{
		{Name: "a", Run: track("a")},
		{Name: "b", Needs: []string{"a"}, Run: track("b")},
		{Name: "c", Needs: []string{"a", "b"}, Run: track("c")},
	}}

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("static")).Run(context.Background(), p, time.Now())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, pipeline.StatusCompleted, run.Status)
	assert.Equal(t, 6, run.TotalRows)
	assert.NotEmpty(t, run.RunID)
	assert.NotNil(t, run.CompletedAt)
}

func TestOrchestrator_FailureSkipsDependents(t *testing.T) {
	boom := errors.New("boom")
	var ran []string
	p := staticPipeline{nodes: []pipeline.Node{
		{Name: "extract", Run: func(ctx context.Context) (int, error) { return 0, boom }},
		{Name: "reference", Run: func(ctx context.Context) (int, error) { ran = append(ran, "reference"); return 1, nil }},
		{Name: "merge", Needs: []string{"extract"}, Run: func(ctx context.Context) (int, error) { ran = append(ran, "merge"); return 1, nil }},
		{Name: "report", Needs: []string{"merge"}, Run: func(ctx context.Context) (int, error) { ran = append(ran, "report"); return 1, nil }},
	}}

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("static")).Run(context.Background(), p, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"reference"}, ran)
	assert.Equal(t, pipeline.StatusPartial, run.Status)
	assert.Equal(t, 1, run.FailedNodes)
	assert.Equal(t, 1, run.CompletedNodes)
}

func TestOrchestrator_PanicBecomesError(t *testing.T) {
	p := staticPipeline{nodes: []pipeline.Node{
		{Name: "explode", Run: func(ctx context.Context) (int, error) { panic("nil map") }},
	}}

	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("static")).Run(context.Background(), p, time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil map")
	assert.Equal(t, pipeline.StatusFailed, run.Status)
}

func TestOrchestrator_CancelledContextSkipsNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := staticPipeline{nodes: []pipeline.Node{{Name: "a", Run: ok(1)}}}
	run, err := pipeline.NewOrchestrator(nil, pipeline.DefaultPipelineConfig("static")).Run(ctx, p, time.Now())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Zero(t, run.CompletedNodes)
}

func TestValidateNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []pipeline.Node
	}{
		{"empty name", []pipeline.Node{{Run: ok(0)}}},
		{"missing run", []pipeline.Node{{Name: "a"}}},
		{"duplicate", []pipeline.Node{{Name: "a", Run: ok(0)}, {Name: "a", Run: ok(0)}}},
		{"forward dependency", []pipeline.Node{{Name: "a", Needs: []string{"b"}, Run: ok(0)}, {Name: "b", Run: ok(0)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, pipeline.ValidateNodes(tt.nodes))
		})
	}

	assert.NoError(t, pipeline.ValidateNodes([]pipeline.Node{{Name: "a", Run: ok(0)}, {Name: "b", Needs: []string{"a"}, Run: ok(0)}}))
}

func TestLayerWriter(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	table := dataset.New([]string{"SKU"}, [][]string{{"A"}})

	w := pipeline.NewLayerWriter(dir, date, true)
	path, err := w.Write(pipeline.LayerPrimary, "merged", table)
	require.NoError(t, err)
	assert.Equal(t, w.Path(pipeline.LayerPrimary, "merged"), path)
	assert.FileExists(t, path)
	assert.Equal(t, []string{path}, w.Written())

	got, err := dataset.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, table.Header, got.Header)
	assert.Equal(t, table.Rows, got.Rows)

	disabled := pipeline.NewLayerWriter(dir, date, false)
	path, err = disabled.Write(pipeline.LayerPrimary, "merged", table)
	require.NoError(t, err)
	assert.Empty(t, path)
}

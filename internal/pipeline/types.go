package pipeline

import (
	"context"
	"path/filepath"
	"time"
)

// Pipeline defines the interface that all batch pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Nodes returns the stages in execution order. A node may only depend on
	// nodes declared before it.
	Nodes() []Node
}

// NodeFunc runs one stage and reports how many rows it produced.
type NodeFunc func(ctx context.Context) (int, error)

// Node is a single named stage of a pipeline.
type Node struct {
	Name  string
	Needs []string
	Run   NodeFunc
}

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name            string
	OutputDir       string // Directory for final published tables
	IntermediateDir string // Root directory for layered intermediate tables
	PersistLayers   bool   // Write intermediate layers to disk
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:            name,
		OutputDir:       filepath.Join("data", "output", name),
		IntermediateDir: filepath.Join("data", "intermediate", name),
		PersistLayers:   true,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusPartial    PipelineStatus = "partial"
	StatusFailed     PipelineStatus = "failed"
)

// NodeStatus represents the state of a single node execution
type NodeStatus string

const (
	NodeStatusQueued    NodeStatus = "queued"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// PipelineRun tracks a single execution of a pipeline for a specific date
type PipelineRun struct {
	ID             int64
	RunID          string
	PipelineName   string
	Date           time.Time
	Status         PipelineStatus
	TotalNodes     int
	CompletedNodes int
	FailedNodes    int
	TotalRows      int
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
}

// NodeJob tracks the execution of a single node
type NodeJob struct {
	ID            int64
	PipelineRunID int64
	NodeName      string
	Status        NodeStatus
	Rows          int
	ErrorMessage  string
	StartedAt     *time.Time
	ProcessedAt   *time.Time
}

// PipelineMetrics holds metrics for monitoring
type PipelineMetrics struct {
	RunsProcessed   int64
	RowsProcessed   int64
	ErrorCount      int64
	LastProcessedAt *time.Time
}

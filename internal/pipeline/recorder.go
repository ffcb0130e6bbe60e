package pipeline

import (
	"context"
	"sync/atomic"
)

// RunRecorder persists run and node progress.
type RunRecorder interface {
	CreatePipelineRun(ctx context.Context, run *PipelineRun) error
	UpdatePipelineRun(ctx context.Context, run *PipelineRun) error
	CreateNodeJob(ctx context.Context, job *NodeJob) error
	UpdateNodeJob(ctx context.Context, job *NodeJob) error
}

var _ RunRecorder = (*Repository)(nil)

// NoopRecorder is used when no database is configured. It only hands out ids.
type NoopRecorder struct {
	seq atomic.Int64
}

func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	run.ID = n.seq.Add(1)
	return nil
}

func (n *NoopRecorder) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	return nil
}

func (n *NoopRecorder) CreateNodeJob(ctx context.Context, job *NodeJob) error {
	job.ID = n.seq.Add(1)
	return nil
}

func (n *NoopRecorder) UpdateNodeJob(ctx context.Context, job *NodeJob) error {
	return nil
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// nodeWorker executes single nodes and keeps their job records current.
type nodeWorker struct {
	recorder RunRecorder
	pipeline string
}

func newNodeWorker(recorder RunRecorder, pipelineName string) *nodeWorker {
	return &nodeWorker{recorder: recorder, pipeline: pipelineName}
}

// execute runs the node, converting a panic into an error.
func (w *nodeWorker) execute(ctx context.Context, run *PipelineRun, node Node) (rows int, err error) {
	startTime := time.Now()
	job := &NodeJob{
		PipelineRunID: run.ID,
		NodeName:      node.Name,
		Status:        NodeStatusRunning,
		StartedAt:     &startTime,
	}
	if err := w.recorder.CreateNodeJob(ctx, job); err != nil {
		return 0, fmt.Errorf("failed to create node job: %w", err)
	}

	log.Debug().Str("pipeline", w.pipeline).Str("node", node.Name).Msg("node started")

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		rows, err = node.Run(ctx)
	}()

	now := time.Now()
	job.ProcessedAt = &now
	job.Rows = rows
	if err != nil {
		return 0, w.markJobFailed(ctx, job, err)
	}

	job.Status = NodeStatusCompleted
	if uerr := w.recorder.UpdateNodeJob(ctx, job); uerr != nil {
		log.Warn().Err(uerr).Str("node", node.Name).Msg("failed to update node job")
	}

	log.Info().
		Str("pipeline", w.pipeline).
		Str("node", node.Name).
		Int("rows", rows).
		Dur("elapsed", now.Sub(startTime)).
		Msg("node completed")

	return rows, nil
}

// skip records a node that was not run because a dependency failed.
func (w *nodeWorker) skip(ctx context.Context, run *PipelineRun, node Node, reason string) {
	job := &NodeJob{
		PipelineRunID: run.ID,
		NodeName:      node.Name,
		Status:        NodeStatusSkipped,
		ErrorMessage:  reason,
	}
	if err := w.recorder.CreateNodeJob(ctx, job); err != nil {
		log.Warn().Err(err).Str("node", node.Name).Msg("failed to record skipped node")
	}
	log.Warn().Str("pipeline", w.pipeline).Str("node", node.Name).Str("reason", reason).Msg("node skipped")
}

// markJobFailed marks a job as failed and returns the original error
func (w *nodeWorker) markJobFailed(ctx context.Context, job *NodeJob, err error) error {
	job.Status = NodeStatusFailed
	job.ErrorMessage = err.Error()

	if uerr := w.recorder.UpdateNodeJob(ctx, job); uerr != nil {
		log.Warn().Err(uerr).Str("node", job.NodeName).Msg("failed to update node job status")
	}

	log.Error().Err(err).Str("pipeline", w.pipeline).Str("node", job.NodeName).Msg("node failed")
	return err
}

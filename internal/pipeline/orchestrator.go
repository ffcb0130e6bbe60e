package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Orchestrator runs a Pipeline's nodes sequentially for one snapshot date.
// A failing node aborts only the nodes that depend on it, directly or not.
type Orchestrator struct {
	recorder RunRecorder
	cfg      PipelineConfig
}

// NewOrchestrator creates a new Orchestrator. A nil recorder disables tracking.
func NewOrchestrator(recorder RunRecorder, cfg PipelineConfig) *Orchestrator {
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	return &Orchestrator{recorder: recorder, cfg: cfg}
}

// ValidateNodes checks for duplicate names and forward or unknown dependencies.
func ValidateNodes(nodes []Node) error {
	declared := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			return fmt.Errorf("node with empty name")
		}
		if n.Run == nil {
			return fmt.Errorf("node %s has no run func", n.Name)
		}
		if _, dup := declared[n.Name]; dup {
			return fmt.Errorf("duplicate node %s", n.Name)
		}
		for _, need := range n.Needs {
			if _, ok := declared[need]; !ok {
				return fmt.Errorf("node %s needs %s, which is not declared before it", n.Name, need)
			}
		}
		declared[n.Name] = struct{}{}
	}
	return nil
}

// Run executes p for the given date. The returned run is populated even when
// an error is returned; the error joins every node failure.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, date time.Time) (*PipelineRun, error) {
	nodes := p.Nodes()
	if err := ValidateNodes(nodes); err != nil {
		return nil, fmt.Errorf("invalid pipeline %s: %w", p.Name(), err)
	}

	run := &PipelineRun{
		RunID:        uuid.NewString(),
		PipelineName: p.Name(),
		Date:         date,
		Status:       StatusProcessing,
		TotalNodes:   len(nodes),
		StartedAt:    time.Now(),
	}
	if err := o.recorder.CreatePipelineRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}

	logger := log.With().Str("pipeline", p.Name()).Str("run_id", run.RunID).Logger()
	logger.Info().Int("nodes", len(nodes)).Str("date", date.Format("2006-01-02")).Msg("pipeline run started")

	worker := newNodeWorker(o.recorder, p.Name())
	state := make(map[string]NodeStatus, len(nodes))
	var errs []error

	for _, node := range nodes {
		if blocked := blockedBy(node, state); blocked != "" || ctx.Err() != nil {
			reason := fmt.Sprintf("dependency %s did not complete", blocked)
			if ctx.Err() != nil {
				reason = ctx.Err().Error()
			}
			worker.skip(ctx, run, node, reason)
			state[node.Name] = NodeStatusSkipped
			continue
		}

		rows, err := worker.execute(ctx, run, node)
		if err != nil {
			state[node.Name] = NodeStatusFailed
			run.FailedNodes++
			errs = append(errs, fmt.Errorf("node %s: %w", node.Name, err))
			continue
		}
		state[node.Name] = NodeStatusCompleted
		run.CompletedNodes++
		run.TotalRows += rows
	}

	runErr := errors.Join(errs...)
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	switch {
	case runErr == nil:
		run.Status = StatusCompleted
	case run.CompletedNodes > 0:
		run.Status = StatusPartial
		run.ErrorMessage = runErr.Error()
	default:
		run.Status = StatusFailed
		run.ErrorMessage = runErr.Error()
	}
	now := time.Now()
	run.CompletedAt = &now

	if err := o.recorder.UpdatePipelineRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("failed to update pipeline run")
	}

	logger.Info().
		Str("status", string(run.Status)).
		Int("completed", run.CompletedNodes).
		Int("failed", run.FailedNodes).
		Int("rows", run.TotalRows).
		Dur("elapsed", now.Sub(run.StartedAt)).
		Msg("pipeline run finished")

	return run, runErr
}

func blockedBy(node Node, state map[string]NodeStatus) string {
	for _, need := range node.Needs {
		if state[need] != NodeStatusCompleted {
			return need
		}
	}
	return ""
}

package pipeline

import (
	"context"
	"database/sql"
	"time"
)

// Repository handles database operations for pipeline tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new pipeline repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePipelineRun creates a new pipeline run record
func (r *Repository) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (
			run_id, pipeline_name, date, status, total_nodes,
			completed_nodes, failed_nodes, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.RunID, run.PipelineName, run.Date, run.Status, run.TotalNodes,
		run.CompletedNodes, run.FailedNodes, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)
}

// UpdatePipelineRun updates an existing pipeline run
func (r *Repository) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, completed_nodes = $2, failed_nodes = $3, total_rows = $4,
		    completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.CompletedNodes, run.FailedNodes, run.TotalRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetPipelineRun retrieves a pipeline run by ID
func (r *Repository) GetPipelineRun(ctx context.Context, id int64) (*PipelineRun, error) {
	query := `
		SELECT id, run_id, pipeline_name, date, status, total_nodes,
		       completed_nodes, failed_nodes, total_rows, started_at, completed_at, error_message
		FROM pipeline_runs
		WHERE id = $1
	`

	run := &PipelineRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.RunID, &run.PipelineName, &run.Date, &run.Status,
		&run.TotalNodes, &run.CompletedNodes, &run.FailedNodes, &run.TotalRows,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetLatestRunByDate retrieves the most recent run of a pipeline for a date
func (r *Repository) GetLatestRunByDate(ctx context.Context, pipelineName string, date time.Time) (*PipelineRun, error) {
	query := `
		SELECT id, run_id, pipeline_name, date, status, total_nodes,
		       completed_nodes, failed_nodes, total_rows, started_at, completed_at, error_message
		FROM pipeline_runs
		WHERE pipeline_name = $1 AND date = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	run := &PipelineRun{}
	err := r.db.QueryRowContext(ctx, query, pipelineName, date).Scan(
		&run.ID, &run.RunID, &run.PipelineName, &run.Date, &run.Status,
		&run.TotalNodes, &run.CompletedNodes, &run.FailedNodes, &run.TotalRows,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CreateNodeJob creates a new node job record
func (r *Repository) CreateNodeJob(ctx context.Context, job *NodeJob) error {
	query := `
		INSERT INTO pipeline_node_jobs (
			pipeline_run_id, node_name, status, error_message
		) VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		job.PipelineRunID, job.NodeName, job.Status, job.ErrorMessage,
	).Scan(&job.ID)
}

// UpdateNodeJob updates an existing node job
func (r *Repository) UpdateNodeJob(ctx context.Context, job *NodeJob) error {
	query := `
		UPDATE pipeline_node_jobs
		SET status = $1, rows_out = $2, error_message = $3, started_at = $4, processed_at = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.Status, job.Rows, job.ErrorMessage, job.StartedAt, job.ProcessedAt, job.ID,
	)

	return err
}

// GetNodeJobsByRunID retrieves all node jobs for a pipeline run
func (r *Repository) GetNodeJobsByRunID(ctx context.Context, runID int64) ([]*NodeJob, error) {
	query := `
		SELECT id, pipeline_run_id, node_name, status, rows_out,
		       error_message, started_at, processed_at
		FROM pipeline_node_jobs
		WHERE pipeline_run_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*NodeJob
	for rows.Next() {
		job := &NodeJob{}
		err := rows.Scan(
			&job.ID, &job.PipelineRunID, &job.NodeName, &job.Status, &job.Rows,
			&job.ErrorMessage, &job.StartedAt, &job.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// GetPipelineStats retrieves statistics for a pipeline
func (r *Repository) GetPipelineStats(ctx context.Context, pipelineName string, since time.Time) (*PipelineMetrics, error) {
	query := `
		SELECT
			COUNT(*) AS runs_processed,
			COALESCE(SUM(total_rows), 0) AS rows_processed,
			COUNT(CASE WHEN status = $2 THEN 1 END) AS error_count,
			MAX(completed_at) AS last_processed_at
		FROM pipeline_runs
		WHERE pipeline_name = $1
		  AND started_at >= $3
	`

	metrics := &PipelineMetrics{}
	err := r.db.QueryRowContext(ctx, query, pipelineName, StatusFailed, since).Scan(
		&metrics.RunsProcessed,
		&metrics.RowsProcessed,
		&metrics.ErrorCount,
		&metrics.LastProcessedAt,
	)

	if err == sql.ErrNoRows {
		return &PipelineMetrics{}, nil
	}

	return metrics, err
}

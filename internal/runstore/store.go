package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nfarrant/metricflow/internal/infrastructure/database"
	"github.com/nfarrant/metricflow/internal/pipeline"
)

// ErrNotFound indicates the requested run or cursor does not exist.
var ErrNotFound = errors.New("runstore: not found")

// defaultListLimit caps ListRuns when the caller passes a non-positive limit.
const defaultListLimit = 50

// Run is a persisted run summary, the stored form of pipeline.RunResult.
type Run struct {
	RunID             string    `json:"run_id"`
	Source            string    `json:"source"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	TotalPoints       int       `json:"total_points"`
	TotalBatches      int       `json:"total_batches"`
	SuccessfulBatches int       `json:"successful_batches"`
	FailedBatches     int       `json:"failed_batches"`
	PointsWritten     int       `json:"points_written"`
}

// Failed reports whether the stored run ended with failed batches.
func (r *Run) Failed() bool {
	return r.FailedBatches > 0
}

// Store reads and writes run history and cursors.
type Store struct {
	db *database.DB
}

// New creates a store over an open database handle.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// SaveRun records a finished run.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - result: The finalized run result
//
// Returns:
//   - error: If the insert fails
func (s *Store) SaveRun(ctx context.Context, result *pipeline.RunResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			run_id, source, started_at, finished_at,
			total_points, total_batches, successful_batches, failed_batches,
			points_written
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Source,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
		result.TotalPoints,
		result.TotalBatches,
		result.SuccessfulBatches,
		result.FailedBatches,
		result.PointsWritten,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", result.RunID, err)
	}
	return nil
}

// GetRun fetches one run by ID.
//
// Returns:
//   - *Run: The stored summary
//   - error: ErrNotFound if no such run, or the query error
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, source, started_at, finished_at,
		       total_points, total_batches, successful_batches, failed_batches,
		       points_written
		FROM pipeline_runs WHERE run_id = ?`, runID)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - limit: Maximum rows to return; non-positive uses the default (50)
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, started_at, finished_at,
		       total_points, total_batches, successful_batches, failed_batches,
		       points_written
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetCursor returns the stored cursor value for name.
//
// Returns:
//   - string: The cursor value
//   - error: ErrNotFound when the cursor has never been set
func (s *Store) GetCursor(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM cursors WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: cursor %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("getting cursor %s: %w", name, err)
	}
	return value, nil
}

// SetCursor stores or replaces the cursor value for name.
func (s *Store) SetCursor(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("setting cursor %s: %w", name, err)
	}
	return nil
}

// scanRun maps a pipeline_runs row onto a Run. The scan argument order
// must match the SELECT column order used by callers.
func scanRun(scan func(dest ...any) error) (*Run, error) {
	var run Run
	var startedAt, finishedAt string

	if err := scan(
		&run.RunID, &run.Source, &startedAt, &finishedAt,
		&run.TotalPoints, &run.TotalBatches, &run.SuccessfulBatches, &run.FailedBatches,
		&run.PointsWritten,
	); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}
	return &run, nil
}

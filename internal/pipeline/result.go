package pipeline

import (
	"time"

	"github.com/nfarrant/metricflow/internal/vmwriter"
)

// RunResult aggregates the outcome of one pipeline run.
//
// It is created when the run starts and finalized once every batch has
// reached a terminal retry state; it is not mutated afterwards.
type RunResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Source describes what produced the input batch (file path, topic).
	Source string `json:"source,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// TotalPoints is the number of points converted from the input batch.
	TotalPoints int `json:"total_points"`

	// TotalBatches is ceil(TotalPoints / batch size).
	TotalBatches int `json:"total_batches"`

	// SuccessfulBatches and FailedBatches partition TotalBatches.
	SuccessfulBatches int `json:"successful_batches"`
	FailedBatches     int `json:"failed_batches"`

	// PointsWritten counts only points in accepted batches.
	PointsWritten int `json:"points_written"`

	// Batches holds the per-batch outcomes in batch order.
	Batches []vmwriter.AttemptResult `json:"-"`
}

// Failed reports whether the run as a whole failed: true when any batch
// exhausted its retries.
func (r *RunResult) Failed() bool {
	return r.FailedBatches > 0
}

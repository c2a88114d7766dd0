package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nfarrant/metricflow/internal/infrastructure/logging"
	"github.com/nfarrant/metricflow/internal/metric"
	"github.com/nfarrant/metricflow/internal/tabular"
	"github.com/nfarrant/metricflow/internal/vmwriter"
)

// Mirror receives a best-effort copy of every converted point. Mirror
// writes are fire-and-forget; they are never retried and never counted
// in the run result.
type Mirror interface {
	WritePoint(p metric.Point)
}

// Deps holds the dependencies required by the pipeline.
type Deps struct {
	// Writer delivers points to VictoriaMetrics. Required.
	Writer *vmwriter.Writer

	// Mirror optionally duplicates points into a secondary sink.
	Mirror Mirror

	// Logger is optional; a nil logger disables run logging.
	Logger *logging.Logger
}

// Pipeline converts tabular batches to metric points and writes them out.
type Pipeline struct {
	writer *vmwriter.Writer
	mirror Mirror
	logger *logging.Logger
}

// New creates a pipeline from its dependencies.
//
// Returns:
//   - *Pipeline: Ready to run
//   - error: If the writer is missing
func New(deps Deps) (*Pipeline, error) {
	if deps.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if deps.Logger != nil {
		deps.Writer.SetLogger(deps.Logger.With("component", "vmwriter"))
	}
	return &Pipeline{
		writer: deps.Writer,
		mirror: deps.Mirror,
		logger: deps.Logger,
	}, nil
}

// Run executes one ingestion run over the batch.
//
// The stages are: normalize and convert the batch, partition the points,
// write each batch with retries, aggregate. A schema error aborts before
// any write is attempted and is returned directly; write failures are
// not errors here; they surface as counts in the result.
//
// Parameters:
//   - ctx: Bounds the individual write requests; there is no run-level
//     cancellation beyond it
//   - batch: The tabular input
//   - source: Free-form description of the batch origin, recorded in the
//     result
//
// Returns:
//   - *RunResult: Aggregated outcome, one AttemptResult per batch
//   - error: Wrapped tabular.ErrSchema when the batch cannot be converted
func (p *Pipeline) Run(ctx context.Context, batch *tabular.Batch, source string) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New().String(),
		Source:    source,
		StartedAt: time.Now(),
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		return nil, fmt.Errorf("converting batch: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("starting run",
			"run_id", result.RunID,
			"source", source,
			"points", len(points),
		)
	}

	if p.mirror != nil {
		for _, pt := range points {
			p.mirror.WritePoint(pt)
		}
	}

	attempts := p.writer.WriteAll(ctx, points)

	result.TotalPoints = len(points)
	result.TotalBatches = len(attempts)
	result.Batches = attempts
	for _, a := range attempts {
		if a.Succeeded {
			result.SuccessfulBatches++
			result.PointsWritten += a.PointsWritten
		} else {
			result.FailedBatches++
		}
	}
	result.FinishedAt = time.Now()

	if p.logger != nil {
		if result.Failed() {
			p.logger.Error("run finished with failed batches",
				"run_id", result.RunID,
				"successful_batches", result.SuccessfulBatches,
				"failed_batches", result.FailedBatches,
				"points_written", result.PointsWritten,
			)
		} else {
			p.logger.Info("run finished",
				"run_id", result.RunID,
				"batches", result.TotalBatches,
				"points_written", result.PointsWritten,
			)
		}
	}

	return result, nil
}

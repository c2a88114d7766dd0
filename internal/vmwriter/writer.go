package vmwriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nfarrant/metricflow/internal/infrastructure/config"
	"github.com/nfarrant/metricflow/internal/metric"
)

// Endpoint paths and limits.
const (
	// importPath is the Prometheus text import endpoint.
	importPath = "/api/v1/import/prometheus"

	// healthPath is the VictoriaMetrics liveness endpoint.
	healthPath = "/health"

	// maxErrorBody caps how much of a rejection body is kept as context.
	maxErrorBody = 200

	// backoffUnit is the base delay between attempts; attempt n sleeps
	// n × backoffUnit before the next send.
	backoffUnit = time.Second

	defaultHealthTimeout = 5 * time.Second
)

// Doer issues a single HTTP request. *http.Client satisfies it; tests
// substitute a fake to exercise the retry machine deterministically.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the minimal logging surface the writer needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// batchState is the per-batch retry state.
type batchState int

const (
	statePending batchState = iota
	stateSending
	stateRetrying
	stateSucceeded
	stateFailed
)

// Writer writes metric points to VictoriaMetrics in fixed-size batches
// with bounded, linearly backed-off retries.
type Writer struct {
	importURL  string
	baseURL    string
	batchSize  int
	maxRetries int
	timeout    time.Duration

	client Doer
	sleep  func(time.Duration)
	logger Logger
}

// New creates a Writer from configuration.
//
// Zero or negative batch size, retry count, or timeout fall back to the
// documented defaults (1000, 3, 30s).
func New(cfg config.VictoriaMetricsConfig) *Writer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base := strings.TrimRight(cfg.URL, "/")

	return &Writer{
		importURL:  base + importPath,
		baseURL:    base,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		timeout:    timeout,
		client:     &http.Client{},
		sleep:      time.Sleep,
	}
}

// SetTransport replaces the HTTP transport. Intended for tests.
func (w *Writer) SetTransport(d Doer) {
	w.client = d
}

// SetSleep replaces the backoff sleep function. Intended for tests.
func (w *Writer) SetSleep(sleep func(time.Duration)) {
	w.sleep = sleep
}

// SetLogger sets an optional logger for per-attempt warnings.
func (w *Writer) SetLogger(l Logger) {
	w.logger = l
}

// BatchSize returns the configured points-per-request limit.
func (w *Writer) BatchSize() int {
	return w.batchSize
}

// HealthCheck verifies the VictoriaMetrics endpoint is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (w *Writer) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("vmwriter health check: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("vmwriter health check: %w", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vmwriter health check: status %d", resp.StatusCode)
	}

	return nil
}

// WriteAll partitions points into batches and writes each in sequence.
//
// Every batch reaches a terminal state and contributes exactly one
// AttemptResult, in batch order. A batch that exhausts its retries is
// reported failed; the remaining batches are still attempted.
func (w *Writer) WriteAll(ctx context.Context, points []metric.Point) []AttemptResult {
	batches := partition(points, w.batchSize)
	results := make([]AttemptResult, 0, len(batches))
	for i, batch := range batches {
		results = append(results, w.writeBatch(ctx, i, batch))
	}
	return results
}

// writeBatch drives one batch through the retry state machine:
// Pending → Sending → {Succeeded | Retrying → Sending | Failed}.
func (w *Writer) writeBatch(ctx context.Context, index int, batch []metric.Point) AttemptResult {
	res := AttemptResult{BatchIndex: index}
	state := statePending

	for {
		switch state {
		case statePending:
			state = stateSending

		case stateSending:
			res.Attempts++
			err := w.send(ctx, batch)
			if err == nil {
				state = stateSucceeded
				break
			}
			res.LastError = err
			if res.Attempts < w.maxRetries {
				if w.logger != nil {
					w.logger.Warn("batch write failed, retrying",
						"batch", index,
						"attempt", res.Attempts,
						"max_attempts", w.maxRetries,
						"error", err,
					)
				}
				state = stateRetrying
			} else {
				if w.logger != nil {
					w.logger.Error("batch write failed, retries exhausted",
						"batch", index,
						"attempts", res.Attempts,
						"error", err,
					)
				}
				state = stateFailed
			}

		case stateRetrying:
			w.sleep(time.Duration(res.Attempts) * backoffUnit)
			state = stateSending

		case stateSucceeded:
			res.Succeeded = true
			res.PointsWritten = len(batch)
			return res

		case stateFailed:
			return res
		}
	}
}

// send encodes the batch and issues one blocking import request.
// A nil return means the endpoint accepted the payload (200 or 204).
func (w *Writer) send(ctx context.Context, batch []metric.Point) error {
	payload := metric.EncodeAll(batch)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.importURL, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrUnexpected, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := w.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "no response body"
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, msg)
}

// classifyTransportError maps a transport-level failure onto the package
// sentinel kinds. Timeouts are checked before connection errors because
// http.Client wraps both in *url.Error.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return fmt.Errorf("%w: %w", ErrUnexpected, err)
}

// partition splits points into contiguous slices of at most size points.
// The final slice may be shorter. Slices share the backing array.
func partition(points []metric.Point, size int) [][]metric.Point {
	if len(points) == 0 {
		return nil
	}
	batches := make([][]metric.Point, 0, (len(points)+size-1)/size)
	for start := 0; start < len(points); start += size {
		end := start + size
		if end > len(points) {
			end = len(points)
		}
		batches = append(batches, points[start:end])
	}
	return batches
}

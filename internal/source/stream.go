package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nfarrant/metricflow/internal/infrastructure/config"
	"github.com/nfarrant/metricflow/internal/infrastructure/mqtt"
	"github.com/nfarrant/metricflow/internal/tabular"
)

// Subscriber is the broker surface the stream source needs.
// Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Stream accumulates JSON records published on an MQTT topic into
// tabular batches and hands them to the pipeline.
//
// A batch is flushed when it reaches the configured row count or when
// the flush interval elapses, whichever comes first. Records are plain
// JSON objects (or arrays of objects) whose keys follow the tabular
// column conventions: "timestamp", "value", optional "metric_name",
// and any number of label columns.
type Stream struct {
	client     Subscriber
	topic      string
	qos        byte
	flushRows  int
	flushEvery time.Duration
	run        RunFunc
	logger     Logger

	mu   sync.Mutex
	rows []tabular.Row
}

// NewStream creates a streaming record source for the configured topic.
//
// Parameters:
//   - cfg: MQTT configuration (topic, QoS, flush thresholds)
//   - client: Connected broker client
//   - run: Callback invoked with each flushed batch
func NewStream(cfg config.MQTTConfig, client Subscriber, run RunFunc) *Stream {
	topic := cfg.Topic
	if topic == "" {
		topic = mqtt.Topics{}.Records()
	}

	flushRows := cfg.FlushRows
	if flushRows <= 0 {
		flushRows = 500
	}

	flushEvery := cfg.GetFlushInterval()
	if flushEvery <= 0 {
		flushEvery = 10 * time.Second
	}

	return &Stream{
		client:     client,
		topic:      topic,
		qos:        byte(cfg.QoS),
		flushRows:  flushRows,
		flushEvery: flushEvery,
		run:        run,
	}
}

// SetLogger sets a logger for stream events.
func (s *Stream) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the records topic and launches the flush loop.
//
// The loop runs until ctx is cancelled; pending rows are flushed once
// more on shutdown so accepted records are not dropped.
//
// Returns:
//   - error: If the subscription fails
func (s *Stream) Start(ctx context.Context) error {
	if err := s.client.Subscribe(s.topic, s.qos, s.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.topic, err)
	}

	go s.flushLoop(ctx)

	return nil
}

// handleMessage decodes one published payload into rows.
//
// Accepts a single JSON object or a JSON array of objects. Decode
// failures are returned to the broker client, which logs them; the
// accumulated batch is unaffected.
func (s *Stream) handleMessage(_ string, payload []byte) error {
	rows, err := decodeRecords(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	full := len(s.rows) >= s.flushRows
	s.mu.Unlock()

	if full {
		s.flush(context.Background())
	}

	return nil
}

// flushLoop flushes on the configured interval until ctx is cancelled.
func (s *Stream) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.client.Unsubscribe(s.topic)

			// Final flush with a bounded context so shutdown cannot hang.
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// flush hands the accumulated rows to the pipeline as one batch.
//
// Rows are swapped out under the lock before the run so new records can
// keep arriving while the batch is written. A failed run drops the
// batch; retries happen at the write layer, not here.
func (s *Stream) flush(ctx context.Context) {
	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return
	}

	batch, err := tabular.NewBatch(rows)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("dropping malformed stream batch",
				"rows", len(rows),
				"error", err,
			)
		}
		return
	}

	if err := s.run(ctx, batch, "mqtt:"+s.topic); err != nil {
		if s.logger != nil {
			s.logger.Error("stream ingestion run failed",
				"rows", len(rows),
				"error", err,
			)
		}
	}
}

// decodeRecords parses a payload into one or more rows.
func decodeRecords(payload []byte) ([]tabular.Row, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeFailed)
	}

	if trimmed[0] == '[' {
		var rows []tabular.Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
		}
		return rows, nil
	}

	var row tabular.Row
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return []tabular.Row{row}, nil
}

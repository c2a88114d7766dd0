package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nfarrant/metricflow/internal/infrastructure/config"
	"github.com/nfarrant/metricflow/internal/infrastructure/mqtt"
	"github.com/nfarrant/metricflow/internal/tabular"
)

// fakeSubscriber records subscriptions without a broker.
type fakeSubscriber struct {
	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
	handler      mqtt.MessageHandler
	subscribeErr error
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

// syncRecorder is a runRecorder safe for use from flush goroutines.
type syncRecorder struct {
	mu      sync.Mutex
	batches []*tabular.Batch
	sources []string
	flushed chan struct{}
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{flushed: make(chan struct{}, 16)}
}

func (r *syncRecorder) run(_ context.Context, batch *tabular.Batch, source string) error {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.sources = append(r.sources, source)
	r.mu.Unlock()
	r.flushed <- struct{}{}
	return nil
}

func (r *syncRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func streamConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Topic:     "metricflow/records",
		QoS:       1,
		FlushRows: 2,
		FlushSecs: 3600, // interval flush disabled for tests
	}
}

// =============================================================================
// Record Decoding Tests
// =============================================================================

func TestDecodeRecordsObject(t *testing.T) {
	rows, err := decodeRecords([]byte(`{"timestamp":1700000000000,"value":21.5,"sensor":"living-room"}`))
	if err != nil {
		t.Fatalf("decodeRecords() error = %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("decoded %d rows, want 1", len(rows))
	}
	if rows[0]["sensor"] != "living-room" {
		t.Errorf("sensor = %v, want living-room", rows[0]["sensor"])
	}
}

func TestDecodeRecordsArray(t *testing.T) {
	rows, err := decodeRecords([]byte(`[{"timestamp":1,"value":1.0},{"timestamp":2,"value":2.0}]`))
	if err != nil {
		t.Fatalf("decodeRecords() error = %v", err)
	}

	if len(rows) != 2 {
		t.Errorf("decoded %d rows, want 2", len(rows))
	}
}

func TestDecodeRecordsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "whitespace", payload: "   "},
		{name: "truncated", payload: `{"timestamp":`},
		{name: "scalar", payload: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRecords([]byte(tt.payload))
			if !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("decodeRecords(%q) error = %v, want ErrDecodeFailed", tt.payload, err)
			}
		})
	}
}

// =============================================================================
// Stream Tests
// =============================================================================

func TestStreamFlushesOnRowCount(t *testing.T) {
	rec := newSyncRecorder()
	s := NewStream(streamConfig(), &fakeSubscriber{}, rec.run)

	if err := s.handleMessage("metricflow/records", []byte(`{"timestamp":1700000000000,"value":1.0}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}
	if rec.count() != 0 {
		t.Fatal("flushed before reaching the row threshold")
	}

	if err := s.handleMessage("metricflow/records", []byte(`{"timestamp":1700000000001,"value":2.0}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("flushed %d batches, want 1", rec.count())
	}
	if got := rec.batches[0].Len(); got != 2 {
		t.Errorf("batch.Len() = %d, want 2", got)
	}
	if rec.sources[0] != "mqtt:metricflow/records" {
		t.Errorf("source = %q, want mqtt:metricflow/records", rec.sources[0])
	}
}

func TestStreamArrayPayloadFlushes(t *testing.T) {
	rec := newSyncRecorder()
	s := NewStream(streamConfig(), &fakeSubscriber{}, rec.run)

	payload := []byte(`[{"timestamp":1,"value":1.0},{"timestamp":2,"value":2.0},{"timestamp":3,"value":3.0}]`)
	if err := s.handleMessage("metricflow/records", payload); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("flushed %d batches, want 1", rec.count())
	}
	if got := rec.batches[0].Len(); got != 3 {
		t.Errorf("batch.Len() = %d, want 3", got)
	}
}

func TestStreamInvalidPayloadKeepsAccumulated(t *testing.T) {
	rec := newSyncRecorder()
	s := NewStream(streamConfig(), &fakeSubscriber{}, rec.run)

	if err := s.handleMessage("metricflow/records", []byte(`{"timestamp":1,"value":1.0}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if err := s.handleMessage("metricflow/records", []byte(`not json`)); !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("handleMessage() error = %v, want ErrDecodeFailed", err)
	}

	// The good row is still pending and flushes with the next one.
	if err := s.handleMessage("metricflow/records", []byte(`{"timestamp":2,"value":2.0}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("flushed %d batches, want 1", rec.count())
	}
	if got := rec.batches[0].Len(); got != 2 {
		t.Errorf("batch.Len() = %d, want 2", got)
	}
}

func TestStreamStartSubscribes(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := newSyncRecorder()
	s := NewStream(streamConfig(), sub, rec.run)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.subscribed) != 1 || sub.subscribed[0] != "metricflow/records" {
		t.Errorf("subscribed = %v, want [metricflow/records]", sub.subscribed)
	}
	if sub.handler == nil {
		t.Error("no handler registered")
	}
}

func TestStreamStartSubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{subscribeErr: errors.New("not connected")}
	s := NewStream(streamConfig(), sub, newSyncRecorder().run)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() expected error when subscribe fails")
	}
}

func TestStreamFinalFlushOnShutdown(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := newSyncRecorder()
	s := NewStream(streamConfig(), sub, rec.run)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// One pending row, below the flush threshold.
	if err := s.handleMessage("metricflow/records", []byte(`{"timestamp":1,"value":1.0}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	cancel()

	select {
	case <-rec.flushed:
	case <-time.After(5 * time.Second):
		t.Fatal("pending rows not flushed on shutdown")
	}

	if got := rec.batches[0].Len(); got != 1 {
		t.Errorf("batch.Len() = %d, want 1", got)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.unsubscribed) != 1 {
		t.Errorf("unsubscribed %d times, want 1", len(sub.unsubscribed))
	}
}

func TestStreamDefaults(t *testing.T) {
	s := NewStream(config.MQTTConfig{}, &fakeSubscriber{}, newSyncRecorder().run)

	if want := (mqtt.Topics{}).Records(); s.topic != want {
		t.Errorf("topic = %q, want %q", s.topic, want)
	}
	if s.flushRows != 500 {
		t.Errorf("flushRows = %d, want 500", s.flushRows)
	}
	if s.flushEvery != 10*time.Second {
		t.Errorf("flushEvery = %v, want 10s", s.flushEvery)
	}
}

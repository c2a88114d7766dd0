package tabular_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nfarrant/metricflow/internal/tabular"
)

func batchWithTimestamps(t *testing.T, values []any) *tabular.Batch {
	t.Helper()
	rows := make([]tabular.Row, len(values))
	for i, v := range values {
		rows[i] = tabular.Row{"timestamp": v, "value": 1.0}
	}
	batch, err := tabular.NewBatch(rows)
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}
	return batch
}

func TestNormalizeTimestamps_EpochSeconds(t *testing.T) {
	// Max below 10^12 means the whole column is read as seconds.
	batch := batchWithTimestamps(t, []any{int64(1700000000), int64(1700000060), int64(1700000120)})

	got, err := tabular.NormalizeTimestamps(batch)
	if err != nil {
		t.Fatalf("NormalizeTimestamps() error = %v", err)
	}

	want := []int64{1700000000000, 1700000060000, 1700000120000}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNormalizeTimestamps_EpochMilliseconds(t *testing.T) {
	values := []any{int64(1700000000000), int64(1700000060000)}
	batch := batchWithTimestamps(t, values)

	got, err := tabular.NormalizeTimestamps(batch)
	if err != nil {
		t.Fatalf("NormalizeTimestamps() error = %v", err)
	}

	for i, v := range values {
		if got[i] != v.(int64) {
			t.Errorf("got[%d] = %d, want %d unchanged", i, got[i], v)
		}
	}
}

func TestNormalizeTimestamps_Idempotent(t *testing.T) {
	// Normalized output is always milliseconds; feeding it back through
	// must be a no-op.
	batch := batchWithTimestamps(t, []any{int64(1700000000), int64(1700000060)})

	once, err := tabular.NormalizeTimestamps(batch)
	if err != nil {
		t.Fatalf("first NormalizeTimestamps() error = %v", err)
	}

	values := make([]any, len(once))
	for i, ts := range once {
		values[i] = ts
	}
	twice, err := tabular.NormalizeTimestamps(batchWithTimestamps(t, values))
	if err != nil {
		t.Fatalf("second NormalizeTimestamps() error = %v", err)
	}

	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("index %d: once = %d, twice = %d", i, once[i], twice[i])
		}
	}
}

func TestNormalizeTimestamps_DateTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 987_654_321, time.UTC)
	batch := batchWithTimestamps(t, []any{ts})

	got, err := tabular.NormalizeTimestamps(batch)
	if err != nil {
		t.Fatalf("NormalizeTimestamps() error = %v", err)
	}

	// Sub-millisecond precision truncates.
	if want := ts.UnixMilli(); got[0] != want {
		t.Errorf("got %d, want %d", got[0], want)
	}
}

func TestNormalizeTimestamps_FloatColumn(t *testing.T) {
	batch := batchWithTimestamps(t, []any{float64(1700000000), float64(1700000060)})

	got, err := tabular.NormalizeTimestamps(batch)
	if err != nil {
		t.Fatalf("NormalizeTimestamps() error = %v", err)
	}
	if got[0] != 1700000000000 {
		t.Errorf("got[0] = %d, want seconds scaled to ms", got[0])
	}
}

func TestNormalizeTimestamps_MissingColumn(t *testing.T) {
	batch, err := tabular.NewBatch([]tabular.Row{{"value": 1.0}})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	_, err = tabular.NormalizeTimestamps(batch)
	if !errors.Is(err, tabular.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema", err)
	}
}

func TestNormalizeTimestamps_NonTemporalColumn(t *testing.T) {
	batch := batchWithTimestamps(t, []any{"not a time"})

	_, err := tabular.NormalizeTimestamps(batch)
	if !errors.Is(err, tabular.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema", err)
	}
}

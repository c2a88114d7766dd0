package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nfarrant/metricflow/internal/tabular"
)

// writeCSV writes a CSV file into a temp dir and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test CSV: %v", err)
	}
	return path
}

// =============================================================================
// ReadCSV Tests
// =============================================================================

func TestReadCSV(t *testing.T) {
	path := writeCSV(t,
		"timestamp,value,metric_name,sensor\n"+
			"2024-01-15T10:00:00Z,21.5,temperature,living-room\n"+
			"2024-01-15T10:01:00Z,22,temperature,kitchen\n")

	batch, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if batch.Len() != 2 {
		t.Fatalf("batch.Len() = %d, want 2", batch.Len())
	}

	for _, col := range []string{"timestamp", "value", "metric_name", "sensor"} {
		if !batch.HasColumn(col) {
			t.Errorf("batch missing column %q", col)
		}
	}

	row := batch.Row(0)

	ts, ok := row["timestamp"].(time.Time)
	if !ok {
		t.Fatalf("timestamp cell = %T, want time.Time", row["timestamp"])
	}
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("timestamp = %v, want %v", ts, want)
	}

	if v, ok := row["value"].(float64); !ok || v != 21.5 {
		t.Errorf("value cell = %v (%T), want 21.5 (float64)", row["value"], row["value"])
	}

	if s, ok := row["sensor"].(string); !ok || s != "living-room" {
		t.Errorf("sensor cell = %v (%T), want living-room (string)", row["sensor"], row["sensor"])
	}

	// Second row's value has no decimal point and parses as an integer.
	if v, ok := batch.Row(1)["value"].(int64); !ok || v != 22 {
		t.Errorf("value cell = %v (%T), want 22 (int64)", batch.Row(1)["value"], batch.Row(1)["value"])
	}
}

func TestReadCSVEmptyCellsBecomeNil(t *testing.T) {
	path := writeCSV(t,
		"timestamp,value,location\n"+
			"1700000000000,1.0,\n")

	batch, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if got := batch.Row(0)["location"]; got != nil {
		t.Errorf("empty cell = %v (%T), want nil", got, got)
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrReadFailed) {
		t.Errorf("ReadCSV() error = %v, want ErrReadFailed", err)
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	path := writeCSV(t, "timestamp,value\n")

	_, err := ReadCSV(path)
	if !errors.Is(err, tabular.ErrEmptyBatch) {
		t.Errorf("ReadCSV() error = %v, want ErrEmptyBatch", err)
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeCSV(t,
		"timestamp,value\n"+
			"1700000000000,1.0,extra\n")

	_, err := ReadCSV(path)
	if !errors.Is(err, ErrReadFailed) {
		t.Errorf("ReadCSV() error = %v, want ErrReadFailed", err)
	}
}

// =============================================================================
// Cell Parsing Tests
// =============================================================================

func TestParseCell(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want any
	}{
		{name: "rfc3339", cell: "2024-01-15T10:00:00Z", want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{name: "integer", cell: "1700000000000", want: int64(1700000000000)},
		{name: "negative integer", cell: "-42", want: int64(-42)},
		{name: "float", cell: "21.5", want: 21.5},
		{name: "scientific", cell: "1.5e3", want: 1500.0},
		{name: "empty", cell: "", want: nil},
		{name: "text", cell: "living-room", want: "living-room"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCell(tt.cell)
			if ts, ok := tt.want.(time.Time); ok {
				gotTS, tok := got.(time.Time)
				if !tok || !gotTS.Equal(ts) {
					t.Errorf("parseCell(%q) = %v, want %v", tt.cell, got, ts)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseCell(%q) = %v (%T), want %v (%T)", tt.cell, got, got, tt.want, tt.want)
			}
		})
	}
}

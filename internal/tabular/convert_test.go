package tabular_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nfarrant/metricflow/internal/tabular"
)

// =============================================================================
// Batch Construction Tests
// =============================================================================

func TestNewBatch_Empty(t *testing.T) {
	_, err := tabular.NewBatch(nil)
	if !errors.Is(err, tabular.ErrEmptyBatch) {
		t.Errorf("error = %v, want ErrEmptyBatch", err)
	}
}

func TestNewBatch_DivergentColumns(t *testing.T) {
	_, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1), "value": 1.0},
		{"timestamp": int64(2), "value": 2.0, "extra": "x"},
	})
	if !errors.Is(err, tabular.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema", err)
	}
}

// =============================================================================
// Conversion Tests
// =============================================================================

func TestToPoints_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name string
		row  tabular.Row
		want string
	}{
		{
			name: "missing value",
			row:  tabular.Row{"timestamp": int64(1700000000)},
			want: "value",
		},
		{
			name: "missing timestamp",
			row:  tabular.Row{"value": 1.0},
			want: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := tabular.NewBatch([]tabular.Row{tt.row})
			if err != nil {
				t.Fatalf("NewBatch() error = %v", err)
			}

			_, err = tabular.ToPoints(batch)
			if !errors.Is(err, tabular.ErrSchema) {
				t.Fatalf("error = %v, want ErrSchema", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should name the missing column %q", err, tt.want)
			}
		})
	}
}

func TestToPoints_MetricNameFallbackPerRow(t *testing.T) {
	// The metric_name column is partially populated; the fallback applies
	// independently per row.
	batch, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1700000000), "value": 1.0, "metric_name": "custom_metric"},
		{"timestamp": int64(1700000001), "value": 2.0, "metric_name": nil},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}

	if points[0].Name != "custom_metric" {
		t.Errorf("points[0].Name = %q, want %q", points[0].Name, "custom_metric")
	}
	if points[1].Name != tabular.DefaultMetricName {
		t.Errorf("points[1].Name = %q, want default %q", points[1].Name, tabular.DefaultMetricName)
	}
}

func TestToPoints_NoMetricNameColumn(t *testing.T) {
	batch, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1700000000), "value": 1.0},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}
	if points[0].Name != tabular.DefaultMetricName {
		t.Errorf("Name = %q, want default %q", points[0].Name, tabular.DefaultMetricName)
	}
}

func TestToPoints_Labels(t *testing.T) {
	batch, err := tabular.NewBatch([]tabular.Row{
		{
			"timestamp":   int64(1700000000),
			"value":       3.5,
			"metric_name": "sensor_reading",
			"site":        "plant-7",
			"sensor_id":   int64(42),
			"calibrated":  true,
			"note":        nil,
		},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}

	labels := points[0].Labels
	if got := labels["site"]; got != "plant-7" {
		t.Errorf(`labels["site"] = %q, want "plant-7"`, got)
	}
	if got := labels["sensor_id"]; got != "42" {
		t.Errorf(`labels["sensor_id"] = %q, want "42"`, got)
	}
	if got := labels["calibrated"]; got != "true" {
		t.Errorf(`labels["calibrated"] = %q, want "true"`, got)
	}

	// Nil cells are dropped, not coerced to "".
	if _, ok := labels["note"]; ok {
		t.Error(`nil cell "note" should be absent from the label set`)
	}

	// Reserved columns never leak into labels.
	for _, reserved := range []string{"timestamp", "value", "metric_name"} {
		if _, ok := labels[reserved]; ok {
			t.Errorf("reserved column %q appeared as a label", reserved)
		}
	}
}

func TestToPoints_ValueCoercion(t *testing.T) {
	batch, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1700000000), "value": int64(7)},
		{"timestamp": int64(1700000001), "value": "2.5"},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}
	if points[0].Value != 7.0 {
		t.Errorf("Value = %v, want 7.0", points[0].Value)
	}
	if points[1].Value != 2.5 {
		t.Errorf("Value = %v, want 2.5", points[1].Value)
	}
}

func TestToPoints_NonNumericValueFailsWholeBatch(t *testing.T) {
	batch, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1700000000), "value": 1.0},
		{"timestamp": int64(1700000001), "value": "not a number"},
		{"timestamp": int64(1700000002), "value": 3.0},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	_, err = tabular.ToPoints(batch)
	if !errors.Is(err, tabular.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema for the whole conversion", err)
	}
}

func TestToPoints_OrderMatchesInput(t *testing.T) {
	rows := make([]tabular.Row, 20)
	for i := range rows {
		rows[i] = tabular.Row{
			"timestamp": int64(1700000000 + i),
			"value":     float64(i),
		}
	}
	batch, err := tabular.NewBatch(rows)
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}
	for i, p := range points {
		if p.Value != float64(i) {
			t.Fatalf("points[%d].Value = %v, output order diverged from input", i, p.Value)
		}
	}
}

func TestToPoints_TimeLabelsUseRFC3339(t *testing.T) {
	seen := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	batch, err := tabular.NewBatch([]tabular.Row{
		{"timestamp": int64(1700000000), "value": 1.0, "observed_at": seen},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	points, err := tabular.ToPoints(batch)
	if err != nil {
		t.Fatalf("ToPoints() error = %v", err)
	}
	if got := points[0].Labels["observed_at"]; got != "2024-06-01T08:30:00Z" {
		t.Errorf(`labels["observed_at"] = %q, want RFC3339 form`, got)
	}
}

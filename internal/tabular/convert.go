package tabular

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nfarrant/metricflow/internal/metric"
)

// DefaultMetricName is used for rows whose metric_name cell is absent or
// nil. The column may be partially populated; the fallback applies per row.
const DefaultMetricName = "parquet_metric"

// ToPoints converts the batch into metric points, one per row, in row
// order.
//
// Required columns are checked once for the whole batch before any row is
// touched. Label cells that are nil are dropped from that row's label set
// rather than coerced to an empty string.
//
// Returns:
//   - []metric.Point: One point per row, ordered as the input
//   - error: Wrapped ErrSchema when a required column is missing or a
//     value cell is non-numeric (fail-fast, no per-row skipping)
func ToPoints(batch *Batch) ([]metric.Point, error) {
	for _, col := range []string{ColTimestamp, ColValue} {
		if !batch.HasColumn(col) {
			return nil, fmt.Errorf("%w: required column %q not found", ErrSchema, col)
		}
	}

	timestamps, err := NormalizeTimestamps(batch)
	if err != nil {
		return nil, err
	}

	hasName := batch.HasColumn(ColMetricName)
	labelCols := batch.labelColumns()

	points := make([]metric.Point, 0, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		row := batch.Row(i)

		value, err := coerceValue(row[ColValue])
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %w", ErrSchema, ColValue, i, err)
		}

		name := DefaultMetricName
		if hasName {
			if cell := row[ColMetricName]; cell != nil {
				name = cellString(cell)
			}
		}

		var labels map[string]string
		for _, col := range labelCols {
			cell := row[col]
			if cell == nil {
				continue
			}
			if labels == nil {
				labels = make(map[string]string, len(labelCols))
			}
			labels[col] = cellString(cell)
		}

		points = append(points, metric.Point{
			Name:        name,
			Value:       value,
			TimestampMs: timestamps[i],
			Labels:      labels,
		})
	}

	return points, nil
}

// coerceValue converts a value cell to float64. Numeric strings are
// accepted; anything else is rejected.
func coerceValue(cell any) (float64, error) {
	switch v := cell.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float64", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float64", cell)
	}
}

// cellString renders a cell using the canonical textual form of its type.
func cellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

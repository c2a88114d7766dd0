package tabular

import (
	"fmt"
	"sort"
)

// Reserved column names. These never become labels.
const (
	// ColTimestamp is the required column holding the observation time.
	ColTimestamp = "timestamp"

	// ColValue is the required column holding the numeric observation.
	ColValue = "value"

	// ColMetricName is the optional column naming the series per row.
	ColMetricName = "metric_name"
)

// Row maps a column name to a scalar cell value.
//
// Permitted cell types: string, float64, int64, int, bool, time.Time,
// or nil for a missing cell. Sources are responsible for producing only
// these types; anything else is stringified with fmt during conversion.
type Row map[string]any

// Batch is an ordered sequence of rows sharing a single column set.
//
// Batches are built once by a source and read by the pipeline; they are
// not mutated after construction.
type Batch struct {
	columns []string
	rows    []Row
}

// NewBatch builds a batch from rows, validating that every row carries
// the same column set as the first.
//
// Returns:
//   - *Batch: The validated batch
//   - error: ErrEmptyBatch for zero rows, or a wrapped ErrSchema when a
//     row's column set diverges from the first row's
func NewBatch(rows []Row) (*Batch, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d",
				ErrSchema, i, len(row), len(columns))
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				return nil, fmt.Errorf("%w: row %d is missing column %q", ErrSchema, i, col)
			}
		}
	}

	return &Batch{columns: columns, rows: rows}, nil
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	return len(b.rows)
}

// Columns returns the batch's column names in sorted order.
// The returned slice must not be modified.
func (b *Batch) Columns() []string {
	return b.columns
}

// HasColumn reports whether the batch carries the named column.
func (b *Batch) HasColumn(name string) bool {
	for _, col := range b.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Row returns the row at index i. The returned map must not be modified.
func (b *Batch) Row(i int) Row {
	return b.rows[i]
}

// labelColumns returns the columns that act as label sources: everything
// except timestamp, value and metric_name.
func (b *Batch) labelColumns() []string {
	labels := make([]string, 0, len(b.columns))
	for _, col := range b.columns {
		switch col {
		case ColTimestamp, ColValue, ColMetricName:
			continue
		default:
			labels = append(labels, col)
		}
	}
	return labels
}

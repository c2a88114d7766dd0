package tabular

import (
	"fmt"
	"time"
)

// millisecondThreshold separates epoch-second from epoch-millisecond
// columns. Values below it are read as seconds: 10^12 ms is September
// 2001, while 10^12 s is some 33,000 years out, so real data never
// straddles the boundary within one unit.
const millisecondThreshold = int64(1_000_000_000_000)

// NormalizeTimestamps converts the batch's timestamp column into epoch
// milliseconds, one value per row in row order.
//
// Date/time-typed cells convert directly, truncating sub-millisecond
// precision. Integer cells are disambiguated once for the whole batch
// using the column maximum (see package docs); the unit decision is
// deliberately not per-row.
//
// Returns:
//   - []int64: Epoch-millisecond timestamps, len == batch.Len()
//   - error: Wrapped ErrSchema when the column is absent or a cell is
//     neither temporal nor numeric
func NormalizeTimestamps(batch *Batch) ([]int64, error) {
	if !batch.HasColumn(ColTimestamp) {
		return nil, fmt.Errorf("%w: required column %q not found", ErrSchema, ColTimestamp)
	}

	out := make([]int64, batch.Len())
	allMillis := true

	for i := 0; i < batch.Len(); i++ {
		cell := batch.Row(i)[ColTimestamp]
		switch v := cell.(type) {
		case time.Time:
			out[i] = v.UnixMilli()
		case int64:
			out[i] = v
			allMillis = false
		case int:
			out[i] = int64(v)
			allMillis = false
		case float64:
			out[i] = int64(v)
			allMillis = false
		default:
			return nil, fmt.Errorf("%w: column %q row %d: cannot interpret %T as a timestamp",
				ErrSchema, ColTimestamp, i, cell)
		}
	}

	// Date/time cells are already milliseconds; only integer columns need
	// the unit heuristic.
	if allMillis {
		return out, nil
	}

	max := out[0]
	for _, ts := range out[1:] {
		if ts > max {
			max = ts
		}
	}
	if max < millisecondThreshold {
		for i := range out {
			out[i] *= 1000
		}
	}

	return out, nil
}

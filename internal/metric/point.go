// Package metric defines the metric point model and its Prometheus text
// exposition encoding.
//
// A Point is one time-series observation: name, float64 value, epoch-
// millisecond timestamp, and an optional label set. Points are created
// once per source row by the tabular converter and are not mutated after
// creation; they are discarded once their write attempt reaches a
// terminal state.
package metric

// Point is a single time-series observation.
//
// Invariants: Name is non-empty, TimestampMs is a non-negative epoch-
// millisecond value, and Labels never contains the reserved column names
// used for name, value or timestamp. The tabular converter upholds these;
// Points built by hand must do the same.
type Point struct {
	// Name is the metric name (series identifier).
	Name string

	// Value is the observed value.
	Value float64

	// TimestampMs is the observation time in milliseconds since epoch.
	TimestampMs int64

	// Labels holds the label set. Nil and empty are equivalent.
	Labels map[string]string
}

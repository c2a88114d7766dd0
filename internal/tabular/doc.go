// Package tabular models the column-oriented record batches handed to the
// ingestion pipeline and converts them into metric points.
//
// A batch arrives from a source (CSV file, MQTT stream) as ordered rows
// sharing one column set. Two columns are mandatory:
//
//   - timestamp: epoch seconds, epoch milliseconds, or a date/time value
//   - value: the numeric observation
//
// The optional metric_name column names the series per row; every other
// column becomes a label on the emitted point.
//
// # Timestamp units
//
// Integer timestamps are disambiguated once per batch: if the column
// maximum is below 10^12 the whole column is read as epoch seconds and
// scaled to milliseconds, otherwise it is taken as milliseconds already.
// A batch mixing seconds and milliseconds is silently misconverted; callers
// must not produce mixed-unit batches.
//
// # Error Handling
//
// Structural problems (missing required column, non-numeric value cell)
// fail the whole batch with an error wrapping ErrSchema before anything is
// written. There is no per-row skipping.
package tabular

// Package influxsink mirrors converted metric points into InfluxDB.
//
// The sink is an optional secondary destination: when enabled, the
// pipeline hands it a copy of every point it converts. Mirror writes are
// non-blocking and best-effort; the InfluxDB client batches them
// internally and reports failures via an error callback. They are never
// retried and never affect the run result; VictoriaMetrics remains the
// system of record.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package influxsink

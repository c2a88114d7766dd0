// Package pipeline orchestrates one ingestion run: a tabular batch is
// converted to metric points, the points are written to VictoriaMetrics
// in batches, and the per-batch outcomes are aggregated into a RunResult.
//
// A schema problem in the input aborts the run before any network call.
// Write failures do not: each batch retries independently and the run
// completes with per-batch counts. The run as a whole is reported failed
// when one or more batches ended failed, even if the rest succeeded:
// partial failure stays visible in the counts rather than collapsing into
// a single boolean.
//
// Execution is single-threaded and synchronous. The only state mutated
// during a run is the result accumulator, owned by the calling goroutine.
// There is no run-level cancellation beyond the per-request timeout; a
// caller that must stop a run relies on process termination.
package pipeline

// Package vmwriter delivers metric points to VictoriaMetrics over the
// Prometheus text import endpoint.
//
// Points are partitioned into fixed-size batches and each batch is written
// with a single blocking HTTP POST to /api/v1/import/prometheus. A batch
// that fails is retried with linear backoff (1s, 2s, 3s, ...) up to a
// configured attempt limit; a batch that exhausts its attempts is declared
// failed and the writer moves on to the next one. One failing batch never
// aborts the rest of the run.
//
// # Failure classification
//
// Every failed attempt is classified into one of four kinds, each a
// sentinel error checkable with errors.Is():
//
//   - ErrConnection: the endpoint was unreachable
//   - ErrTimeout: no response within the request timeout
//   - ErrRejected: the endpoint answered with a non-accepting status
//   - ErrUnexpected: anything else
//
// # Testability
//
// The HTTP transport and the backoff sleep are both injectable, so retry
// timing and failure classification are unit-testable without a server or
// real sleeps. The defaults (http.Client, time.Sleep) are used in
// production.
//
// # Thread Safety
//
// A Writer processes batches sequentially on the calling goroutine. It is
// safe to use one Writer from multiple goroutines only if calls do not
// overlap; the pipeline drives it single-threaded.
package vmwriter

// Package runstore persists pipeline run history and source cursors in
// SQLite.
//
// Two tables back it (see migrations/):
//
//   - pipeline_runs: one row per finished ingestion run, written once a
//     run reaches its terminal state. The status API reads these.
//   - cursors: named positions for sources, e.g. the file watcher's
//     last-seen modification time, so a restart does not replay an
//     unchanged file.
//
// The store wraps the shared database.DB handle; it owns no connection
// of its own.
package runstore

// Package source provides record sources that feed the ingestion pipeline.
//
// Two sources are supported:
//
//   - CSV file: ReadCSV parses a headered CSV file into a tabular.Batch,
//     and Watcher polls the file's modification time against a persisted
//     cursor, triggering a run whenever the file changes.
//   - MQTT stream: Stream subscribes to a records topic and accumulates
//     published JSON records into batches, flushing on row count or on a
//     timer.
//
// Both sources deliver batches through the same RunFunc callback, so the
// pipeline does not know or care where records came from.
package source

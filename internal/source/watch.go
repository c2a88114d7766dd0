package source

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/nfarrant/metricflow/internal/infrastructure/config"
	"github.com/nfarrant/metricflow/internal/tabular"
)

// watchCursor is the persisted cursor name for the file watcher.
const watchCursor = "csv_mtime"

// RunFunc executes one ingestion run for a batch read from a source.
//
// The source string identifies where the batch came from and is recorded
// with the run.
type RunFunc func(ctx context.Context, batch *tabular.Batch, source string) error

// CursorStore persists watch progress across restarts.
//
// Implementations should return an empty value (with or without an error)
// when no cursor has been stored yet; the watcher treats any Get failure
// as an absent cursor.
type CursorStore interface {
	GetCursor(ctx context.Context, name string) (string, error)
	SetCursor(ctx context.Context, name, value string) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Watcher polls a CSV file's modification time and triggers an ingestion
// run whenever the file changes.
//
// The last processed modification time is persisted as a cursor, so a
// restart does not re-ingest an unchanged file.
type Watcher struct {
	path     string
	interval time.Duration
	cursors  CursorStore
	run      RunFunc
	logger   Logger
}

// NewWatcher creates a file watcher for the configured CSV path.
//
// Parameters:
//   - cfg: Source configuration (path and polling interval)
//   - cursors: Cursor persistence, typically runstore
//   - run: Callback invoked with each freshly read batch
func NewWatcher(cfg config.SourceConfig, cursors CursorStore, run RunFunc) *Watcher {
	interval := cfg.GetWatchInterval()
	if interval <= 0 {
		interval = time.Minute
	}

	return &Watcher{
		path:     cfg.CSVPath,
		interval: interval,
		cursors:  cursors,
		run:      run,
	}
}

// SetLogger sets a logger for watch events.
// If not set, poll failures are silently ignored.
func (w *Watcher) SetLogger(logger Logger) {
	w.logger = logger
}

// Start runs the polling loop until ctx is cancelled.
//
// The first check happens immediately, so a file that changed while the
// service was down is picked up without waiting a full interval.
func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check performs a single poll: stat the file, compare its modification
// time against the cursor, and trigger a run when it is newer.
//
// The cursor advances only after a run completes without error, so a
// failed run is retried on the next poll.
func (w *Watcher) check(ctx context.Context) {
	info, err := os.Stat(w.path)
	if err != nil {
		w.warn("source file not available", "path", w.path, "error", err)
		return
	}

	mtime := info.ModTime().UnixNano()

	cursor, err := w.cursors.GetCursor(ctx, watchCursor)
	if err != nil {
		cursor = ""
	}

	var last int64
	if cursor != "" {
		last, err = strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			w.warn("invalid watch cursor, re-ingesting", "cursor", cursor, "error", err)
			last = 0
		}
	}

	if mtime <= last {
		return
	}

	batch, err := ReadCSV(w.path)
	if err != nil {
		w.warn("reading source file failed", "path", w.path, "error", err)
		return
	}

	if w.logger != nil {
		w.logger.Info("source file changed, starting run",
			"path", w.path,
			"rows", batch.Len(),
		)
	}

	if err := w.run(ctx, batch, "csv:"+w.path); err != nil {
		w.warn("ingestion run failed", "path", w.path, "error", err)
		return
	}

	value := strconv.FormatInt(mtime, 10)
	if err := w.cursors.SetCursor(ctx, watchCursor, value); err != nil {
		w.warn("persisting watch cursor failed", "error", err)
	}
}

func (w *Watcher) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}

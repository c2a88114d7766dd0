// metricflow - tabular records to VictoriaMetrics ingestion service
//
// This is the main entry point for the metricflow daemon. It watches a
// CSV record file and, optionally, an MQTT records topic, converts the
// records to Prometheus line-protocol points, and writes them to
// VictoriaMetrics in retried batches. Run history is kept in SQLite and
// exposed over a small HTTP status API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nfarrant/metricflow/migrations"

	"github.com/nfarrant/metricflow/internal/api"
	"github.com/nfarrant/metricflow/internal/influxsink"
	"github.com/nfarrant/metricflow/internal/infrastructure/config"
	"github.com/nfarrant/metricflow/internal/infrastructure/database"
	"github.com/nfarrant/metricflow/internal/infrastructure/logging"
	"github.com/nfarrant/metricflow/internal/infrastructure/mqtt"
	"github.com/nfarrant/metricflow/internal/pipeline"
	"github.com/nfarrant/metricflow/internal/runstore"
	"github.com/nfarrant/metricflow/internal/source"
	"github.com/nfarrant/metricflow/internal/tabular"
	"github.com/nfarrant/metricflow/internal/vmwriter"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting metricflow",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := runstore.New(db)

	// Create the VictoriaMetrics writer. An unreachable endpoint is not
	// fatal at startup: every write is retried anyway, but surface it.
	writer := vmwriter.New(cfg.VictoriaMetrics)
	if healthErr := writer.HealthCheck(ctx); healthErr != nil {
		log.Warn("VictoriaMetrics not reachable at startup",
			"url", cfg.VictoriaMetrics.URL,
			"error", healthErr,
		)
	} else {
		log.Info("VictoriaMetrics reachable", "url", cfg.VictoriaMetrics.URL)
	}

	// Connect the optional InfluxDB mirror sink
	var mirror pipeline.Mirror
	if cfg.InfluxDB.Enabled {
		sink, sinkErr := influxsink.Connect(cfg.InfluxDB)
		if sinkErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", sinkErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := sink.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		sink.SetOnError(func(err error) {
			log.Error("InfluxDB mirror write error", "error", err)
		})
		mirror = sink
		log.Info("InfluxDB mirror connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	// Assemble the pipeline
	pipe, err := pipeline.New(pipeline.Deps{
		Writer: writer,
		Mirror: mirror,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	// Connect to MQTT (optional streaming source + run summary publishing)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// ingest runs one pipeline pass and records the outcome. All sources
	// funnel through here.
	ingest := func(runCtx context.Context, batch *tabular.Batch, src string) error {
		result, runErr := pipe.Run(runCtx, batch, src)
		if runErr != nil {
			return runErr
		}

		if saveErr := store.SaveRun(runCtx, result); saveErr != nil {
			log.Error("saving run failed", "run_id", result.RunID, "error", saveErr)
		}

		publishRunSummary(mqttClient, cfg.MQTT.QoS, result, log)

		if result.Failed() {
			log.Warn("ingestion run had failed batches",
				"run_id", result.RunID,
				"failed_batches", result.FailedBatches,
				"points_written", result.PointsWritten,
			)
		} else {
			log.Info("ingestion run complete",
				"run_id", result.RunID,
				"points_written", result.PointsWritten,
			)
		}
		return nil
	}

	// Start the file source: either a watch loop or a single pass
	if cfg.Source.CSVPath != "" {
		if cfg.Source.Watch {
			watcher := source.NewWatcher(cfg.Source, store, ingest)
			watcher.SetLogger(log)
			go watcher.Start(ctx)
			log.Info("file watcher started",
				"path", cfg.Source.CSVPath,
				"interval", cfg.Source.GetWatchInterval(),
			)
		} else {
			if ingestErr := ingestFileOnce(ctx, cfg.Source.CSVPath, ingest, log); ingestErr != nil {
				return ingestErr
			}
		}
	}

	// Start the MQTT streaming source
	if mqttClient != nil {
		stream := source.NewStream(cfg.MQTT, mqttClient, ingest)
		stream.SetLogger(log)
		if streamErr := stream.Start(ctx); streamErr != nil {
			return fmt.Errorf("starting MQTT stream source: %w", streamErr)
		}
		log.Info("MQTT stream source started", "topic", cfg.MQTT.Topic)
	}

	// Start the status API
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Runs:    store,
			DB:      db,
			Writer:  writer,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started",
			"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, MQTT, InfluxDB (if enabled), database.

	log.Info("metricflow stopped")
	return nil
}

// ingestFileOnce reads the CSV file and runs a single ingestion pass.
// Used when file watching is disabled.
func ingestFileOnce(ctx context.Context, path string, ingest source.RunFunc, log *logging.Logger) error {
	batch, err := source.ReadCSV(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	log.Info("ingesting file", "path", path, "rows", batch.Len())

	if err := ingest(ctx, batch, "csv:"+path); err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}
	return nil
}

// publishRunSummary publishes the run outcome to the runs topic.
// Best effort: a publish failure is logged, never propagated.
func publishRunSummary(client *mqtt.Client, qos int, result *pipeline.RunResult, log *logging.Logger) {
	if client == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Error("encoding run summary failed", "run_id", result.RunID, "error", err)
		return
	}

	topic := mqtt.Topics{}.RunResult(result.RunID)
	if err := client.Publish(topic, payload, byte(qos), false); err != nil {
		log.Warn("publishing run summary failed", "run_id", result.RunID, "error", err)
	}
}

// getConfigPath returns the configuration file path.
// Uses METRICFLOW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("METRICFLOW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

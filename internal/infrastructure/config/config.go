package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for metricflow.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	VictoriaMetrics VictoriaMetricsConfig `yaml:"victoriametrics"`
	InfluxDB        InfluxDBConfig        `yaml:"influxdb"`
	Source          SourceConfig          `yaml:"source"`
	MQTT            MQTTConfig            `yaml:"mqtt"`
	Database        DatabaseConfig        `yaml:"database"`
	API             APIConfig             `yaml:"api"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// VictoriaMetricsConfig contains the ingestion target settings.
//
// The pipeline core never reads the environment itself; everything it
// needs arrives through this struct, resolved once at startup.
type VictoriaMetricsConfig struct {
	// URL is the VictoriaMetrics base URL (e.g. "http://localhost:8428").
	URL string `yaml:"url"`

	// BatchSize is the number of points written per import request.
	BatchSize int `yaml:"batch_size"`

	// MaxRetries is the total number of attempts per batch before it is
	// declared failed. Must be positive.
	MaxRetries int `yaml:"max_retries"`

	// RequestTimeout is the per-request timeout in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// InfluxDBConfig contains the optional InfluxDB mirror sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SourceConfig contains the file record-source settings.
type SourceConfig struct {
	// CSVPath is the path to the CSV file holding tabular records.
	CSVPath string `yaml:"csv_path"`

	// Watch enables polling CSVPath for modification and triggering a
	// pipeline run when the file changes.
	Watch bool `yaml:"watch"`

	// WatchInterval is the polling interval in seconds.
	WatchInterval int `yaml:"watch_interval"`
}

// MQTTConfig contains MQTT record-source settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Topic     string              `yaml:"topic"`
	FlushRows int                 `yaml:"flush_rows"`
	FlushSecs int                 `yaml:"flush_interval"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DatabaseConfig contains SQLite database settings for the run store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: METRICFLOW_SECTION_KEY
// For example: METRICFLOW_VICTORIAMETRICS_URL, METRICFLOW_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		VictoriaMetrics: VictoriaMetricsConfig{
			URL:            "http://localhost:8428",
			BatchSize:      1000,
			MaxRetries:     3,
			RequestTimeout: 30,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Source: SourceConfig{
			CSVPath:       "data/timeseries_data.csv",
			Watch:         false,
			WatchInterval: 60,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "metricflow",
			},
			QoS:       1,
			Topic:     "metricflow/records",
			FlushRows: 500,
			FlushSecs: 10,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Database: DatabaseConfig{
			Path:        "data/metricflow.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8420,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// VictoriaMetrics
	if v := os.Getenv("METRICFLOW_VICTORIAMETRICS_URL"); v != "" {
		cfg.VictoriaMetrics.URL = v
	}

	// Database
	if v := os.Getenv("METRICFLOW_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Source
	if v := os.Getenv("METRICFLOW_SOURCE_CSV_PATH"); v != "" {
		cfg.Source.CSVPath = v
	}

	// MQTT
	if v := os.Getenv("METRICFLOW_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("METRICFLOW_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("METRICFLOW_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("METRICFLOW_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("METRICFLOW_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// VictoriaMetrics validation
	if c.VictoriaMetrics.URL == "" {
		errs = append(errs, "victoriametrics.url is required")
	}
	if c.VictoriaMetrics.BatchSize <= 0 {
		errs = append(errs, "victoriametrics.batch_size must be positive")
	}
	if c.VictoriaMetrics.MaxRetries <= 0 {
		errs = append(errs, "victoriametrics.max_retries must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required when mqtt is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the VictoriaMetrics request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.VictoriaMetrics.RequestTimeout) * time.Second
}

// GetWatchInterval returns the source watch interval as a Duration.
func (c SourceConfig) GetWatchInterval() time.Duration {
	return time.Duration(c.WatchInterval) * time.Second
}

// GetFlushInterval returns the MQTT stream flush interval as a Duration.
func (c MQTTConfig) GetFlushInterval() time.Duration {
	return time.Duration(c.FlushSecs) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}

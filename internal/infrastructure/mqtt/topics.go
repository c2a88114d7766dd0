package mqtt

import "fmt"

// Topic prefixes for the metricflow MQTT namespace.
//
// All topics use the flat scheme: metricflow/{category}[/{id}]
const (
	// TopicPrefix is the base for all metricflow topics.
	TopicPrefix = "metricflow"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "metricflow/system"
)

// Topics provides builders for metricflow MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	recordsTopic := topics.Records()
//	// Returns: "metricflow/records"
type Topics struct{}

// Records returns the topic on which tabular records are published
// for ingestion.
//
// Example: metricflow/records
func (Topics) Records() string {
	return fmt.Sprintf("%s/records", TopicPrefix)
}

// RunResult returns the topic on which a completed run's summary is
// published.
//
// Example: metricflow/runs/7f9c2a...
func (Topics) RunResult(runID string) string {
	return fmt.Sprintf("%s/runs/%s", TopicPrefix, runID)
}

// AllRunResults returns the wildcard subscription for run summaries.
//
// Example: metricflow/runs/+
func (Topics) AllRunResults() string {
	return fmt.Sprintf("%s/runs/+", TopicPrefix)
}

// SystemStatus returns the topic for service online/offline status.
// Used for the LWT message and graceful shutdown notifications.
//
// Example: metricflow/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

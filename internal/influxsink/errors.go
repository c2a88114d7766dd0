package influxsink

import "errors"

// Sentinel errors for the InfluxDB mirror sink.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxsink.ErrDisabled) {
//	    // Run without a mirror.
//	}
var (
	// ErrNotConnected indicates the sink is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxsink: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxsink: connection failed")

	// ErrDisabled indicates the mirror sink is disabled in config.
	ErrDisabled = errors.New("influxsink: disabled in configuration")
)

// Package mqtt provides MQTT client connectivity for metricflow.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// metricflow uses MQTT as an optional streaming record source: producers
// publish JSON records to metricflow/records, and the service accumulates
// them into batches for ingestion. Run summaries are published back on
// metricflow/runs/{id} so producers can observe delivery outcomes.
//
//	Record Producers → MQTT Broker → metricflow → VictoriaMetrics
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to incoming records
//	err = client.Subscribe(mqtt.Topics{}.Records(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a run summary
//	topic := mqtt.Topics{}.RunResult(result.RunID)
//	client.Publish(topic, summaryJSON, 1, false)
package mqtt

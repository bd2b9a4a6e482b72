// Package influxdb provides InfluxDB connectivity for Pinwarden.
//
// It wraps the official influxdb-client-go v2 library with the patterns the
// rest of the service uses for optional infrastructure: an Enabled flag in
// configuration, a Connect that validates and pings, and non-blocking
// batched writes with an error callback.
//
// # Purpose
//
// This package records pin command telemetry: one point per processed
// command, tagged by origin transport, action and pin. Dashboards can then
// answer questions like "how often is pin 17 toggled" or "which transport
// drives most traffic" without touching the SQLite journal.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // disabled or unreachable; the daemon continues without telemetry
//	}
//	defer client.Close()
//
//	client.WritePinEvent("socket", "write", 17, &one, true)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are batched and flushed
// asynchronously by the underlying write API; failures surface through the
// SetOnError callback, never through the write call itself.
package influxdb

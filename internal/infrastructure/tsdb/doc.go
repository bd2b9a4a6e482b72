// Package tsdb provides time-series database connectivity for Pinwarden.
//
// It writes to VictoriaMetrics using InfluxDB line protocol over HTTP.
// Zero external dependencies — uses only net/http.
//
// # Purpose
//
// This package is the lighter-weight alternative to the InfluxDB sink for
// installs that run VictoriaMetrics: one point per processed pin command,
// tagged by origin transport, action and pin.
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Enabled:       true,
//	    URL:           "http://localhost:8428",
//	    BatchSize:     1000,
//	    FlushInterval: 1,
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    // disabled or unreachable; the daemon continues without telemetry
//	}
//	defer client.Close()
//
//	client.WritePinEvent("socket", "write", 17, &one, true)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched internally and flushed on size threshold or timer.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a callback.
// Connection and health check errors are returned directly.
package tsdb

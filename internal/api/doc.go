// Package api implements the read-only HTTP status API and WebSocket
// event feed for Pinwarden.
//
// This package provides:
//   - REST endpoints for pin state, command history, and system metrics
//   - WebSocket hub broadcasting pin events in real time
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server is an observability surface, not a third command
// transport: it never invokes the command processor. Commands flow only
// through the socket server and the MQTT bridge; this package reads the
// line registry, the journal, and the transports' counters, and relays
// processor events to WebSocket subscribers.
//
// # Graceful Degradation
//
// Every dependency beyond the registry is optional. Without a journal the
// event endpoints report the feature unavailable; without transport stats
// the metrics response simply omits those sections. The daemon runs fine
// with the API disabled entirely.
package api

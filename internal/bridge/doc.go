// Package bridge implements the MQTT transport for Pinwarden.
//
// This package connects the shared command processor to an MQTT broker so
// controllers and automations can drive GPIO pins without a direct socket
// connection.
//
// # Architecture
//
// The bridge is a thin pub/sub face over the same processor the socket
// transport uses:
//
//	┌─────────────────┐          ┌─────────────────┐
//	│   Controllers   │   MQTT   │ Pinwarden Bridge│
//	│  (any client)   │◄────────►│   (this pkg)    │──► Command Processor
//	└─────────────────┘          └─────────────────┘
//
// # Topics
//
// All topics hang off one configurable prefix (default "hardware/gpio"):
//
//   - <prefix>/control: inbound pin commands (same JSON schema as the socket)
//   - <prefix>/response: command replies
//   - <prefix>/status: any payload requests a snapshot
//   - <prefix>/status_response: snapshot replies
//   - <prefix>/availability: retained online/offline, refreshed periodically
//
// # Broker Outages
//
// The bridge never takes the service down. Subscriptions registered while
// the broker is unreachable are applied when the connection comes up, and
// the availability loop logs connection transitions while the client
// reconnects on its own.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package bridge

package mqtt

// DefaultTopicPrefix is the base for all bridge topics when the
// configuration does not override it.
const DefaultTopicPrefix = "hardware/gpio"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// All topics hang off a single configurable prefix:
//
//	topics := mqtt.NewTopics("hardware/gpio")
//	topics.Control() // "hardware/gpio/control"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder for the given prefix.
// An empty prefix selects DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the configured topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Control returns the topic carrying inbound pin commands.
//
// Example: hardware/gpio/control
func (t Topics) Control() string {
	return t.prefix + "/control"
}

// Response returns the topic command responses are published to.
//
// Example: hardware/gpio/response
func (t Topics) Response() string {
	return t.prefix + "/response"
}

// Status returns the topic that triggers a full status report.
// Any payload published here requests a snapshot.
//
// Example: hardware/gpio/status
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// StatusResponse returns the topic status snapshots are published to.
//
// Example: hardware/gpio/status_response
func (t Topics) StatusResponse() string {
	return t.prefix + "/status_response"
}

// Availability returns the retained availability topic. The client
// publishes "online" here on every connect, a graceful "offline" before
// disconnecting, and registers the LWT so the broker marks the service
// offline after a crash.
//
// Example: hardware/gpio/availability
func (t Topics) Availability() string {
	return t.prefix + "/availability"
}

package command

import "time"

// Wire types shared by both transports. The socket server and the MQTT
// bridge deliver raw payloads to the processor and relay the response
// verbatim, so the JSON shape lives here rather than in either transport.

// Origin identifies which transport delivered a command.
const (
	OriginSocket = "socket"
	OriginMQTT   = "mqtt"
)

// Request is one wire command as received from either transport.
type Request struct {
	// Pin is the line number to act on. A pointer so that a payload
	// without a pin field can be told apart from pin 0.
	Pin *int `json:"pin"`

	// Direction, when present, requests a (re)configuration of the pin
	// before any value is applied. Valid values: "input", "output".
	Direction string `json:"direction,omitempty"`

	// Value is the level to drive an output pin to. Any non-zero value
	// drives the line high. Negative values are treated as absent,
	// matching senders that use -1 as a "no value" marker.
	Value *int `json:"value,omitempty"`
}

// HasValue reports whether the request carries a usable value.
func (r Request) HasValue() bool {
	return r.Value != nil && *r.Value >= 0
}

// Response is the reply sent back over the originating transport.
type Response struct {
	// Success indicates whether the command was fully applied.
	Success bool `json:"success"`

	// Value carries the sampled level (0 or 1) for read operations.
	Value *int `json:"value,omitempty"`

	// Message is a human-readable confirmation on success.
	Message string `json:"message,omitempty"`

	// Error is a human-readable failure description.
	Error string `json:"error,omitempty"`

	// Details carries the underlying hardware error, if any.
	Details string `json:"details,omitempty"`
}

// Action categorises a command attempt for the event journal.
type Action string

const (
	// ActionConfigure covers commands carrying a direction.
	ActionConfigure Action = "configure"

	// ActionWrite covers value-only commands.
	ActionWrite Action = "write"

	// ActionRead covers bare pin queries.
	ActionRead Action = "read"

	// ActionInvalid covers payloads that never parsed into a command.
	ActionInvalid Action = "invalid"
)

// Event records one command attempt for the journal, telemetry sinks and
// WebSocket subscribers. Exactly one event is emitted per attempt,
// including rejected and malformed ones.
type Event struct {
	// Origin is the transport the command arrived on ("socket", "mqtt").
	Origin string `json:"origin"`

	// Pin is the targeted pin, or -1 when the payload never parsed.
	Pin int `json:"pin"`

	// Action is the attempted operation.
	Action Action `json:"action"`

	// Direction is the requested direction for configure attempts.
	Direction string `json:"direction,omitempty"`

	// Value is the level written or read, when the operation carried one.
	Value *int `json:"value,omitempty"`

	// Success mirrors the response's success flag.
	Success bool `json:"success"`

	// Error mirrors the response's error, if any.
	Error string `json:"error,omitempty"`

	// CreatedAt is when the attempt was processed (UTC).
	CreatedAt time.Time `json:"created_at"`
}

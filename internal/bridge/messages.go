package bridge

import (
	"github.com/oweslake/pinwarden/internal/gpio"
	"github.com/oweslake/pinwarden/internal/line"
)

// MQTT message types for the pin-control topic tree. Command and response
// payloads reuse the wire types from internal/command; the types here cover
// the status snapshot the bridge publishes on request.

// StatusMessage is published to the status_response topic whenever any
// payload arrives on the status topic.
// Topic: <prefix>/status_response
type StatusMessage struct {
	// ActivePins is the number of currently configured pins.
	ActivePins int `json:"active_pins"`

	// Pins lists every configured pin, ordered by pin number.
	Pins []PinStatus `json:"pins"`
}

// PinStatus describes one configured pin in a status snapshot.
type PinStatus struct {
	// Pin is the pin number (0-40).
	Pin int `json:"pin"`

	// IsOutput is true when the pin is configured as an output.
	IsOutput bool `json:"is_output"`

	// Value is the current level (0 or 1). Omitted when the snapshot
	// read failed for this pin.
	Value *int `json:"value,omitempty"`
}

// NewStatusMessage builds a status snapshot from registry pin states.
func NewStatusMessage(states []line.PinState) StatusMessage {
	pins := make([]PinStatus, 0, len(states))
	for _, st := range states {
		pins = append(pins, PinStatus{
			Pin:      st.Pin,
			IsOutput: st.Direction == gpio.DirectionOutput,
			Value:    st.Value,
		})
	}

	return StatusMessage{
		ActivePins: len(pins),
		Pins:       pins,
	}
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oweslake/pinwarden/internal/gpio"
	"github.com/oweslake/pinwarden/internal/line"
)

// PinsResponse is the registry snapshot returned by GET /pins.
// Same shape as the MQTT status_response payload so callers can share
// parsing code between the two surfaces.
type PinsResponse struct {
	ActivePins int       `json:"active_pins"`
	Pins       []PinInfo `json:"pins"`
}

// PinInfo describes one configured pin.
type PinInfo struct {
	Pin      int  `json:"pin"`
	IsOutput bool `json:"is_output"`

	// Value is the current level (0 or 1), omitted when the best-effort
	// read failed.
	Value *int `json:"value,omitempty"`
}

// handleListPins returns the current registry snapshot.
func (s *Server) handleListPins(w http.ResponseWriter, _ *http.Request) {
	states := s.registry.Snapshot()

	pins := make([]PinInfo, 0, len(states))
	for _, st := range states {
		pins = append(pins, pinInfo(st))
	}

	writeJSON(w, http.StatusOK, PinsResponse{
		ActivePins: len(pins),
		Pins:       pins,
	})
}

// handleGetPin returns one configured pin, or 404 if it is unconfigured.
func (s *Server) handleGetPin(w http.ResponseWriter, r *http.Request) {
	pin, err := strconv.Atoi(chi.URLParam(r, "pin"))
	if err != nil {
		writeBadRequest(w, "pin must be an integer")
		return
	}
	if !line.ValidPin(pin) {
		writeBadRequest(w, "pin out of range")
		return
	}

	st, err := s.registry.State(pin)
	if err != nil {
		if errors.Is(err, line.ErrNotConfigured) {
			writeNotFound(w, "pin not configured")
			return
		}
		writeInternalError(w, "failed to read pin state")
		return
	}

	writeJSON(w, http.StatusOK, pinInfo(st))
}

func pinInfo(st line.PinState) PinInfo {
	return PinInfo{
		Pin:      st.Pin,
		IsOutput: st.Direction == gpio.DirectionOutput,
		Value:    st.Value,
	}
}

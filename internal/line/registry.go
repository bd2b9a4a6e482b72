package line

import (
	"fmt"
	"sort"
	"sync"

	"github.com/oweslake/pinwarden/internal/gpio"
)

// Pin numbering accepted by the registry. The range covers every line the
// service exposes regardless of which backend is active; offsets outside it
// are rejected before any hardware call.
const (
	MinPin = 0
	MaxPin = 40
)

// ValidPin reports whether id is within the supported pin range.
func ValidPin(id int) bool {
	return id >= MinPin && id <= MaxPin
}

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// PinState is a read-only snapshot of one configured pin.
// Value is nil when the best-effort read failed.
type PinState struct {
	Pin       int
	Direction gpio.Direction
	Value     *int
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	ActiveLines int
	Inputs      int
	Outputs     int
}

// activeLine pairs a configured direction with the hardware handle backing it.
type activeLine struct {
	direction gpio.Direction
	handle    gpio.LineHandle
}

// Registry tracks which pins are configured and owns their hardware handles.
//
// A nil backend puts the registry into degraded mode: configuration attempts
// fail with ErrBackendUnavailable and the line table stays empty, so reads
// and writes fail as unconfigured.
//
// All public methods are thread-safe.
type Registry struct {
	backend gpio.Backend
	mu      sync.Mutex // Guards lines; held across backend calls
	lines   map[int]*activeLine
	logger  Logger
}

// NewRegistry creates a new line registry on top of the given backend.
// The backend may be nil when hardware probing failed at startup.
func NewRegistry(backend gpio.Backend) *Registry {
	return &Registry{
		backend: backend,
		lines:   make(map[int]*activeLine),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Degraded reports whether the registry is running without a hardware backend.
func (r *Registry) Degraded() bool {
	return r.backend == nil
}

// BackendName returns the name of the active backend, or "none" in
// degraded mode.
func (r *Registry) BackendName() string {
	if r.backend == nil {
		return "none"
	}
	return r.backend.Name()
}

// Configure reserves a pin for the given direction, releasing any previous
// reservation first. If the backend rejects the request the pin is left
// unconfigured regardless of its prior state.
func (r *Registry) Configure(id int, dir gpio.Direction) error {
	if !ValidPin(id) {
		return fmt.Errorf("%w: %d", ErrInvalidPin, id)
	}
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", gpio.ErrInvalidDirection, dir)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return ErrBackendUnavailable
	}

	if prev, ok := r.lines[id]; ok {
		if err := prev.handle.Close(); err != nil {
			r.logger.Warn("failed to release gpio line", "pin", id, "error", err)
		}
		delete(r.lines, id)
	}

	handle, err := r.backend.RequestLine(id, dir)
	if err != nil {
		return fmt.Errorf("requesting pin %d as %s: %w", id, dir, err)
	}
	r.lines[id] = &activeLine{direction: dir, handle: handle}

	r.logger.Info("gpio line configured", "pin", id, "direction", dir)
	return nil
}

// Write drives a configured output pin high or low.
// The pin must have been configured as an output.
func (r *Registry) Write(id int, value bool) error {
	if !ValidPin(id) {
		return fmt.Errorf("%w: %d", ErrInvalidPin, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ln, ok := r.lines[id]
	if !ok {
		return fmt.Errorf("%w: pin %d", ErrNotConfigured, id)
	}
	if ln.direction != gpio.DirectionOutput {
		return fmt.Errorf("%w: pin %d is an %s", ErrWrongDirection, id, ln.direction)
	}

	if err := ln.handle.SetValue(value); err != nil {
		return fmt.Errorf("setting pin %d: %w", id, err)
	}
	return nil
}

// Read samples a configured input pin.
// The pin must have been configured as an input.
func (r *Registry) Read(id int) (bool, error) {
	if !ValidPin(id) {
		return false, fmt.Errorf("%w: %d", ErrInvalidPin, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ln, ok := r.lines[id]
	if !ok {
		return false, fmt.Errorf("%w: pin %d", ErrNotConfigured, id)
	}
	if ln.direction != gpio.DirectionInput {
		return false, fmt.Errorf("%w: pin %d is an %s", ErrWrongDirection, id, ln.direction)
	}

	value, err := ln.handle.Value()
	if err != nil {
		return false, fmt.Errorf("reading pin %d: %w", id, err)
	}
	return value, nil
}

// State returns a snapshot of a single configured pin.
// Returns ErrNotConfigured if the pin has no reservation.
func (r *Registry) State(id int) (PinState, error) {
	if !ValidPin(id) {
		return PinState{}, fmt.Errorf("%w: %d", ErrInvalidPin, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ln, ok := r.lines[id]
	if !ok {
		return PinState{}, fmt.Errorf("%w: pin %d", ErrNotConfigured, id)
	}
	return r.snapshotLine(id, ln), nil
}

// Snapshot returns the state of every configured pin, ordered by pin number.
// Values are read best-effort; a pin whose read fails is still listed, with
// a nil Value.
func (r *Registry) Snapshot() []PinState {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.lines))
	for id := range r.lines {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	states := make([]PinState, 0, len(ids))
	for _, id := range ids {
		states = append(states, r.snapshotLine(id, r.lines[id]))
	}
	return states
}

// snapshotLine builds the PinState for one line. Caller must hold r.mu.
func (r *Registry) snapshotLine(id int, ln *activeLine) PinState {
	state := PinState{Pin: id, Direction: ln.direction}
	value, err := ln.handle.Value()
	if err != nil {
		r.logger.Warn("failed to read gpio line for snapshot", "pin", id, "error", err)
		return state
	}
	v := 0
	if value {
		v = 1
	}
	state.Value = &v
	return state
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{ActiveLines: len(r.lines)}
	for _, ln := range r.lines {
		switch ln.direction {
		case gpio.DirectionInput:
			stats.Inputs++
		case gpio.DirectionOutput:
			stats.Outputs++
		}
	}
	return stats
}

// Shutdown releases every configured line. Safe to call more than once;
// subsequent calls are no-ops. The backend itself is closed by the caller
// after the registry has released its lines.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	released := 0
	for id, ln := range r.lines {
		if err := ln.handle.Close(); err != nil {
			r.logger.Warn("failed to release gpio line", "pin", id, "error", err)
		}
		released++
	}
	r.lines = make(map[int]*activeLine)

	if released > 0 {
		r.logger.Info("line registry shut down", "released", released)
	}
}

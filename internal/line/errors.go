package line

import "errors"

// Domain errors for the line package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, line.ErrNotConfigured) {
//	    // handle unconfigured pin
//	}
var (
	// ErrInvalidPin is returned when a pin number is outside the supported range.
	ErrInvalidPin = errors.New("line: invalid pin")

	// ErrNotConfigured is returned when an operation targets a pin that has
	// not been configured.
	ErrNotConfigured = errors.New("line: not configured")

	// ErrWrongDirection is returned when an operation requires the opposite
	// direction to the one the pin was configured with.
	ErrWrongDirection = errors.New("line: wrong direction")

	// ErrBackendUnavailable is returned when no hardware backend was detected
	// at startup and the daemon is running in degraded mode.
	ErrBackendUnavailable = errors.New("line: backend unavailable")
)

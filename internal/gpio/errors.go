package gpio

import "errors"

// Sentinel errors for backend selection and line requests.
var (
	// ErrNoBackend indicates no configured backend could be opened.
	ErrNoBackend = errors.New("gpio: no backend available")

	// ErrUnknownBackend indicates an unrecognised backend name in config.
	ErrUnknownBackend = errors.New("gpio: unknown backend")

	// ErrInvalidDirection indicates a direction other than input or output.
	ErrInvalidDirection = errors.New("gpio: invalid direction")
)

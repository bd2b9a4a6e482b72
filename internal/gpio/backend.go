package gpio

import (
	"fmt"

	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/infrastructure/logging"
)

// Direction is the configured signal direction of a line.
type Direction string

// Supported line directions.
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Valid reports whether d is a recognised direction.
func (d Direction) Valid() bool {
	return d == DirectionInput || d == DirectionOutput
}

// LineHandle represents exclusive ownership of one requested line.
//
// A handle stays live until Close is called; requesting the same offset
// again without closing the previous handle is a caller error.
type LineHandle interface {
	// SetValue drives the line high (true) or low (false).
	SetValue(value bool) error

	// Value reads the current level of the line.
	Value() (bool, error)

	// Close releases the line back to the backend.
	Close() error
}

// Backend is the narrow interface over an underlying GPIO access library.
//
// Exactly one backend is selected at startup by Probe. Backends do not
// track ownership across requests; the caller releases a prior handle
// before requesting the same offset again.
type Backend interface {
	// Name identifies the backend generation ("chardev", "memmap").
	Name() string

	// RequestLine reserves the line at offset with the given direction.
	RequestLine(offset int, dir Direction) (LineHandle, error)

	// Close releases backend-level resources. Line handles should be
	// closed first.
	Close() error
}

// Probe opens the first working backend from the configured candidate list.
//
// Candidates are tried strictly in order; the first successful open wins.
// A candidate failing to open is logged and skipped — hosts legitimately
// lack some generations (no /dev/gpiochipN on old kernels, no /dev/gpiomem
// outside Raspberry Pi images).
//
// Parameters:
//   - cfg: GPIO configuration (candidate order, chip names, consumer label)
//   - logger: Logger for probe diagnostics
//
// Returns:
//   - Backend: The opened backend
//   - error: ErrNoBackend if every candidate failed
func Probe(cfg config.GPIOConfig, logger *logging.Logger) (Backend, error) {
	for _, name := range cfg.Backends {
		var (
			backend Backend
			err     error
		)

		switch name {
		case "chardev":
			backend, err = openChardev(cfg.Chips, cfg.Consumer)
		case "memmap":
			backend, err = openMemmap()
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}

		if err != nil {
			logger.Debug("gpio backend unavailable", "backend", name, "error", err)
			continue
		}

		logger.Info("gpio backend selected", "backend", backend.Name())
		return backend, nil
	}

	return nil, ErrNoBackend
}

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// memmapBackend drives lines by mapping the GPIO registers into process
// memory via go-rpio. The mapping is process-wide: one backend instance
// owns it, and Close unmaps it for every handle.
type memmapBackend struct{}

// openMemmap maps the GPIO registers. Fails on hosts without /dev/gpiomem
// (or /dev/mem access).
func openMemmap() (Backend, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("mapping gpio registers: %w", err)
	}
	return &memmapBackend{}, nil
}

func (b *memmapBackend) Name() string { return "memmap" }

func (b *memmapBackend) RequestLine(offset int, dir Direction) (LineHandle, error) {
	pin := rpio.Pin(offset) // #nosec G115 -- offsets are range-checked by the registry

	switch dir {
	case DirectionOutput:
		pin.Output()
	case DirectionInput:
		pin.Input()
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	return &memmapLine{pin: pin}, nil
}

func (b *memmapBackend) Close() error {
	return rpio.Close()
}

// memmapLine wraps one register-mapped pin. Register access has no
// per-line reservation concept, so Close is a no-op; exclusivity is
// enforced by the line registry above.
type memmapLine struct {
	pin rpio.Pin
}

func (l *memmapLine) SetValue(value bool) error {
	if value {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	return nil
}

func (l *memmapLine) Value() (bool, error) {
	return l.pin.Read() == rpio.High, nil
}

func (l *memmapLine) Close() error {
	return nil
}

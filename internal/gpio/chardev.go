package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// chardevBackend drives lines through the Linux GPIO character device.
//
// One chip handle stays open for the backend lifetime; lines are requested
// and released individually against it.
type chardevBackend struct {
	chip     *gpiocdev.Chip
	consumer string
}

// openChardev opens the first available chip from the candidate list.
// Newer boards expose the header on a different chip than older ones, so
// the list is tried in order until one opens.
func openChardev(chips []string, consumer string) (Backend, error) {
	if len(chips) == 0 {
		return nil, errors.New("gpio: no chips configured")
	}

	var lastErr error
	for _, name := range chips {
		chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
		if err != nil {
			lastErr = err
			continue
		}
		return &chardevBackend{chip: chip, consumer: consumer}, nil
	}

	return nil, fmt.Errorf("opening gpio chip: %w", lastErr)
}

func (b *chardevBackend) Name() string { return "chardev" }

// RequestLine reserves the line at offset. Output lines are initialised
// low; input lines take the chip default bias.
func (b *chardevBackend) RequestLine(offset int, dir Direction) (LineHandle, error) {
	var line *gpiocdev.Line
	var err error

	switch dir {
	case DirectionOutput:
		line, err = b.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	case DirectionInput:
		line, err = b.chip.RequestLine(offset, gpiocdev.AsInput)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	if err != nil {
		return nil, fmt.Errorf("requesting line %d: %w", offset, err)
	}
	return &chardevLine{line: line}, nil
}

func (b *chardevBackend) Close() error {
	return b.chip.Close()
}

// chardevLine wraps one requested character-device line.
type chardevLine struct {
	line *gpiocdev.Line
}

func (l *chardevLine) SetValue(value bool) error {
	v := 0
	if value {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *chardevLine) Value() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (l *chardevLine) Close() error {
	return l.line.Close()
}

// Package gpio provides the hardware backend abstraction for Pinwarden.
//
// GPIO access libraries have changed shape across board generations: newer
// kernels expose lines through the character device (/dev/gpiochipN), while
// older installs rely on memory-mapped register access. This package hides
// that difference behind a narrow interface so the rest of the service never
// sees which generation is driving the pins.
//
// # Architecture
//
//	┌──────────────┐
//	│ line.Registry │
//	└──────┬───────┘
//	       │ Backend interface
//	┌──────▼───────────────────────────┐
//	│ gpio.Probe (ordered candidates)  │
//	│  ├── chardev (go-gpiocdev)       │
//	│  └── memmap  (go-rpio)           │
//	└──────────────────────────────────┘
//
// # Usage
//
//	backend, err := gpio.Probe(cfg.GPIO, logger)
//	if err != nil {
//	    // service continues in degraded mode with no backend
//	}
//	defer backend.Close()
//
//	handle, err := backend.RequestLine(17, gpio.DirectionOutput)
//	if err != nil {
//	    return err
//	}
//	defer handle.Close()
//
//	err = handle.SetValue(true)
//
// # Thread Safety
//
// Backends do not serialise access themselves; the line registry holds its
// lock across every backend call, so at most one request is in flight.
package gpio

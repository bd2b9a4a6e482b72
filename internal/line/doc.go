// Package line provides the Line Registry for Pinwarden.
//
// The Line Registry is the single source of truth for which GPIO pins are
// currently reserved, which direction each one was configured for, and the
// hardware handle backing it. Both transports (socket and MQTT bridge) drive
// pins exclusively through the registry via the command processor; nothing
// else touches the backend once the daemon is running.
//
// # Key Types
//
//   - Registry: Thread-safe map of pin number to configured line
//   - PinState: Read-only snapshot of one configured pin
//   - Stats: Counters for monitoring (active lines, inputs, outputs)
//
// # Usage
//
//	backend, err := gpio.Probe(cfg.GPIO, log)
//	if err != nil {
//	    backend = nil // degraded mode: registry rejects configuration
//	}
//	registry := line.NewRegistry(backend)
//	registry.SetLogger(log)
//
//	if err := registry.Configure(17, gpio.DirectionOutput); err != nil {
//	    return err
//	}
//	if err := registry.Write(17, true); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A single mutex guards the line table and is held across backend calls, so
// hardware access is fully serialised. GPIO operations are microsecond-scale;
// callers on other connections block briefly rather than interleave on the
// same electrical lines.
package line

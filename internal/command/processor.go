package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oweslake/pinwarden/internal/gpio"
	"github.com/oweslake/pinwarden/internal/line"
)

// LineController is the subset of the line registry the processor drives.
type LineController interface {
	Configure(pin int, direction gpio.Direction) error
	Write(pin int, value bool) error
	Read(pin int) (bool, error)
}

// EventSink receives a record of each command attempt after the response
// has been decided. Implementations must not block for long; sink errors
// are logged and never surface in the response.
type EventSink interface {
	Record(ctx context.Context, event Event) error
}

// Logger defines the logging interface used by the Processor.
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

// Processor turns wire payloads into line registry calls and builds the
// response both transports relay verbatim. It holds no per-command state,
// so a single instance serves every session and the bridge concurrently.
type Processor struct {
	lines  LineController
	sinks  []EventSink
	logger Logger
}

// NewProcessor creates a command processor on top of the given registry.
func NewProcessor(lines LineController) *Processor {
	return &Processor{
		lines:  lines,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the processor.
func (p *Processor) SetLogger(logger Logger) {
	p.logger = logger
}

// AddSink registers an event sink. Must be called before the processor
// starts serving commands.
func (p *Processor) AddSink(sink EventSink) {
	p.sinks = append(p.sinks, sink)
}

// Execute decodes a raw payload and processes it. Payloads that do not
// parse into a command produce the invalid-request response rather than
// an error; the transport session stays usable.
func (p *Processor) Execute(ctx context.Context, origin string, payload []byte) Response {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		resp := Response{Error: "Invalid JSON request", Details: err.Error()}
		p.finish(ctx, origin, resp, Event{Pin: -1, Action: ActionInvalid, Error: resp.Error})
		return resp
	}
	return p.Process(ctx, origin, req)
}

// Process applies one decoded command and returns the response.
// Exactly one event is emitted per call, success or not.
func (p *Processor) Process(ctx context.Context, origin string, req Request) Response {
	resp, evt := p.apply(req)
	p.finish(ctx, origin, resp, evt)
	return resp
}

// apply walks the decision tree: pin range first, then configure when a
// direction is present, then write when a value is present, else read.
func (p *Processor) apply(req Request) (Response, Event) {
	if req.Pin == nil {
		resp := Response{Error: "Invalid JSON request", Details: "missing pin field"}
		return resp, Event{Pin: -1, Action: ActionInvalid, Error: resp.Error}
	}
	pin := *req.Pin

	if !line.ValidPin(pin) {
		resp := Response{Error: fmt.Sprintf("Invalid pin number. Must be between %d and %d.", line.MinPin, line.MaxPin)}
		return resp, Event{Pin: pin, Action: actionFor(req), Direction: req.Direction, Error: resp.Error}
	}

	switch {
	case req.Direction != "":
		return p.applyConfigure(pin, req)
	case req.HasValue():
		return p.applyWrite(pin, *req.Value)
	default:
		return p.applyRead(pin)
	}
}

// applyConfigure reserves the pin, then applies the optional follow-up:
// outputs with a value are driven, inputs are sampled. A follow-up failure
// flips success but keeps the configure confirmation in the message.
func (p *Processor) applyConfigure(pin int, req Request) (Response, Event) {
	evt := Event{Pin: pin, Action: ActionConfigure, Direction: req.Direction}

	dir := gpio.Direction(req.Direction)
	if !dir.Valid() {
		resp := Response{Error: "Invalid direction. Must be 'input' or 'output'."}
		evt.Error = resp.Error
		return resp, evt
	}

	if err := p.lines.Configure(pin, dir); err != nil {
		resp := Response{}
		if errors.Is(err, line.ErrBackendUnavailable) {
			resp.Error = "Hardware backend unavailable"
		} else {
			resp.Error = fmt.Sprintf("Failed to configure pin %d as %s", pin, dir)
			resp.Details = err.Error()
		}
		evt.Error = resp.Error
		return resp, evt
	}

	resp := Response{Success: true, Message: fmt.Sprintf("GPIO pin %d configured as %s", pin, dir)}

	switch {
	case dir == gpio.DirectionOutput && req.HasValue():
		value := normaliseLevel(*req.Value)
		if err := p.lines.Write(pin, value == 1); err != nil {
			resp.Success = false
			resp.Error, resp.Details = writeFailure(pin, err)
			evt.Error = resp.Error
			return resp, evt
		}
		resp.Message += fmt.Sprintf(" and set to %d", value)
		evt.Value = &value
	case dir == gpio.DirectionInput:
		raw, err := p.lines.Read(pin)
		if err != nil {
			resp.Success = false
			resp.Error, resp.Details = readFailure(pin, err)
			evt.Error = resp.Error
			return resp, evt
		}
		value := levelInt(raw)
		resp.Value = &value
		evt.Value = &value
	}

	evt.Success = true
	return resp, evt
}

// applyWrite drives an already-configured output pin.
func (p *Processor) applyWrite(pin, rawValue int) (Response, Event) {
	value := normaliseLevel(rawValue)
	evt := Event{Pin: pin, Action: ActionWrite}

	if err := p.lines.Write(pin, value == 1); err != nil {
		resp := Response{}
		resp.Error, resp.Details = writeFailure(pin, err)
		evt.Error = resp.Error
		return resp, evt
	}

	evt.Success = true
	evt.Value = &value
	return Response{Success: true, Message: fmt.Sprintf("GPIO pin %d set to %d", pin, value)}, evt
}

// applyRead samples an already-configured input pin.
func (p *Processor) applyRead(pin int) (Response, Event) {
	evt := Event{Pin: pin, Action: ActionRead}

	raw, err := p.lines.Read(pin)
	if err != nil {
		resp := Response{}
		resp.Error, resp.Details = readFailure(pin, err)
		evt.Error = resp.Error
		return resp, evt
	}

	value := levelInt(raw)
	evt.Success = true
	evt.Value = &value
	return Response{Success: true, Value: &value, Message: fmt.Sprintf("GPIO pin %d value read successfully", pin)}, evt
}

// finish stamps and emits the event, then logs the outcome. Client
// mistakes stay at debug; only hardware faults log at error level.
func (p *Processor) finish(ctx context.Context, origin string, resp Response, evt Event) {
	evt.Origin = origin
	evt.CreatedAt = time.Now().UTC()
	p.emit(ctx, evt)

	switch {
	case resp.Success:
		p.logger.Debug("command applied",
			"origin", origin, "pin", evt.Pin, "action", evt.Action)
	case resp.Details != "" && evt.Action != ActionInvalid:
		p.logger.Error("command failed",
			"origin", origin, "pin", evt.Pin, "action", evt.Action,
			"error", resp.Error, "details", resp.Details)
	default:
		p.logger.Debug("command rejected",
			"origin", origin, "pin", evt.Pin, "action", evt.Action, "error", resp.Error)
	}
}

// emit fans the event out to every sink.
func (p *Processor) emit(ctx context.Context, evt Event) {
	for _, sink := range p.sinks {
		if err := sink.Record(ctx, evt); err != nil {
			p.logger.Warn("event sink record failed", "error", err)
		}
	}
}

// actionFor categorises a request that was rejected before dispatch.
func actionFor(req Request) Action {
	switch {
	case req.Direction != "":
		return ActionConfigure
	case req.HasValue():
		return ActionWrite
	default:
		return ActionRead
	}
}

// writeFailure maps a registry write error to the wire error and details.
func writeFailure(pin int, err error) (string, string) {
	switch {
	case errors.Is(err, line.ErrNotConfigured):
		return fmt.Sprintf("Pin %d is not configured", pin), ""
	case errors.Is(err, line.ErrWrongDirection):
		return fmt.Sprintf("Pin %d is not configured as output", pin), ""
	case errors.Is(err, line.ErrBackendUnavailable):
		return "Hardware backend unavailable", ""
	default:
		return fmt.Sprintf("Failed to set pin %d", pin), err.Error()
	}
}

// readFailure maps a registry read error to the wire error and details.
func readFailure(pin int, err error) (string, string) {
	switch {
	case errors.Is(err, line.ErrNotConfigured):
		return fmt.Sprintf("Pin %d is not configured", pin), ""
	case errors.Is(err, line.ErrWrongDirection):
		return fmt.Sprintf("Pin %d is not configured as input", pin), ""
	case errors.Is(err, line.ErrBackendUnavailable):
		return "Hardware backend unavailable", ""
	default:
		return fmt.Sprintf("Failed to read pin %d", pin), err.Error()
	}
}

// normaliseLevel collapses any non-zero value to logic high.
func normaliseLevel(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}

// levelInt converts a sampled level to its wire representation.
func levelInt(high bool) int {
	if high {
		return 1
	}
	return 0
}

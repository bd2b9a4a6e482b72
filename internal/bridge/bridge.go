package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oweslake/pinwarden/internal/command"
	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/infrastructure/mqtt"
	"github.com/oweslake/pinwarden/internal/line"
)

// defaultAvailabilityInterval is used when the configured interval is
// missing or invalid.
const defaultAvailabilityInterval = 60 * time.Second

// Bridge connects the command processor to an MQTT broker.
// It handles:
//   - Receiving pin commands on the control topic and publishing replies
//   - Publishing registry snapshots in response to status requests
//   - Periodic retained availability refresh and connection-transition logging
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       config.MQTTConfig
	mqtt      MQTTClient
	processor CommandExecutor
	lines     LineSnapshotter
	topics    mqtt.Topics

	// availabilityInterval is how often the reporter loop republishes the
	// retained availability message.
	availabilityInterval time.Duration

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	// Statistics (atomic for performance)
	commandsReceived   atomic.Uint64
	responsesPublished atomic.Uint64
	statusRequests     atomic.Uint64
	publishErrors      atomic.Uint64

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern. Registering while
	// the broker is unreachable must not fail; tracked subscriptions are
	// applied on every (re)connect.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool

	// PublishAvailability republishes the retained online availability
	// message for the service.
	PublishAvailability() error
}

// CommandExecutor runs one raw command payload through the processor.
// Satisfied by *command.Processor.
type CommandExecutor interface {
	Execute(ctx context.Context, origin string, payload []byte) command.Response
}

// LineSnapshotter reports the current state of all configured pins.
// Satisfied by *line.Registry.
type LineSnapshotter interface {
	Snapshot() []line.PinState
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Config is the MQTT section of the service configuration.
	Config config.MQTTConfig

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Processor executes incoming pin commands.
	Processor CommandExecutor

	// Lines provides registry snapshots for status requests.
	Lines LineSnapshotter

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("command processor is required")
	}
	if opts.Lines == nil {
		return nil, fmt.Errorf("line snapshotter is required")
	}

	interval := opts.Config.GetAvailabilityInterval()
	if interval <= 0 {
		interval = defaultAvailabilityInterval
	}

	// Create bridge-level context so in-flight commands are cancelled on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		cfg:                  opts.Config,
		mqtt:                 opts.MQTTClient,
		processor:            opts.Processor,
		lines:                opts.Lines,
		topics:               mqtt.NewTopics(opts.Config.TopicPrefix),
		availabilityInterval: interval,
		done:                 make(chan struct{}),
		ctx:                  ctx,
		ctxCancel:            ctxCancel,
		logger:               opts.Logger,
	}, nil
}

// Topics returns the topic builder the bridge was configured with.
func (b *Bridge) Topics() mqtt.Topics {
	return b.topics
}

// Start begins bridge operation.
// This registers the control and status subscriptions and starts the
// availability reporter loop. Subscriptions registered while the broker is
// unreachable are applied by the client once the connection comes up, so
// Start succeeds whether or not the broker exists yet.
func (b *Bridge) Start(ctx context.Context) error {
	qos := byte(b.cfg.QoS) //nolint:gosec // validated 0-2 by config

	controlTopic := b.topics.Control()
	if err := b.mqtt.Subscribe(controlTopic, qos, b.handleControl); err != nil {
		return fmt.Errorf("subscribe to control: %w", err)
	}
	b.logInfo("subscribed to control", "topic", controlTopic)

	statusTopic := b.topics.Status()
	if err := b.mqtt.Subscribe(statusTopic, qos, b.handleStatus); err != nil {
		return fmt.Errorf("subscribe to status: %w", err)
	}
	b.logInfo("subscribed to status", "topic", statusTopic)

	b.wg.Add(1)
	go b.availabilityLoop(ctx)

	b.logInfo("bridge started",
		"prefix", b.topics.Prefix(),
		"connected", b.mqtt.IsConnected())

	return nil
}

// Stop gracefully shuts down the bridge.
// The graceful offline availability message is published by the MQTT
// client's own teardown, which runs after the bridge stops.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Cancel bridge context to abort in-flight commands
		b.ctxCancel()

		// Wait for the reporter loop
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// handleControl processes a pin command from the control topic.
// The reply is published to the response topic regardless of outcome;
// malformed payloads produce an error response rather than being dropped.
func (b *Bridge) handleControl(_ string, payload []byte) {
	b.commandsReceived.Add(1)

	resp := b.processor.Execute(b.ctx, command.OriginMQTT, payload)
	b.publishResponse(resp)
}

// handleStatus publishes a registry snapshot to the status_response topic.
// Any payload on the status topic counts as a request.
func (b *Bridge) handleStatus(_ string, _ []byte) {
	b.statusRequests.Add(1)

	msg := NewStatusMessage(b.lines.Snapshot())

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal status", err)
		return
	}

	topic := b.topics.StatusResponse()
	if err := b.mqtt.Publish(topic, payload, byte(b.cfg.QoS), false); err != nil { //nolint:gosec
		b.publishErrors.Add(1)
		b.logError("failed to publish status", err)
		return
	}

	b.logDebug("published status", "active_pins", msg.ActivePins)
}

// publishResponse publishes a command response.
func (b *Bridge) publishResponse(resp command.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		b.logError("failed to marshal response", err)
		return
	}

	topic := b.topics.Response()
	if err := b.mqtt.Publish(topic, payload, byte(b.cfg.QoS), false); err != nil { //nolint:gosec
		b.publishErrors.Add(1)
		b.logError("failed to publish response", err)
		return
	}

	b.responsesPublished.Add(1)
}

// availabilityLoop periodically refreshes the retained availability message
// and logs broker connection transitions. The paho client reconnects on its
// own; this loop only observes and reports. It exits when the bridge stops
// or the daemon context is cancelled.
func (b *Bridge) availabilityLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.availabilityInterval)
	defer ticker.Stop()

	connected := b.mqtt.IsConnected()

	for {
		select {
		case <-b.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := b.mqtt.IsConnected()
			if now != connected {
				if now {
					b.logInfo("broker connection restored")
				} else {
					b.logWarn("broker connection lost, automatic reconnect in progress")
				}
				connected = now
			}

			if !now {
				continue
			}

			if err := b.mqtt.PublishAvailability(); err != nil {
				b.publishErrors.Add(1)
				b.logError("failed to publish availability", err)
			}
		}
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// Metrics contains bridge counters for the API metrics endpoint.
type Metrics struct {
	Connected          bool
	CommandsReceived   uint64
	ResponsesPublished uint64
	StatusRequests     uint64
	PublishErrors      uint64
}

// GetMetrics returns current bridge metrics.
func (b *Bridge) GetMetrics() Metrics {
	return Metrics{
		Connected:          b.mqtt.IsConnected(),
		CommandsReceived:   b.commandsReceived.Load(),
		ResponsesPublished: b.responsesPublished.Load(),
		StatusRequests:     b.statusRequests.Load(),
		PublishErrors:      b.publishErrors.Load(),
	}
}

// Pinwarden - Hardware Resource Control Service
//
// This is the main entry point for the pinwarden daemon. Pinwarden owns
// the GPIO lines of a single-board host and exposes them to remote
// callers over two transports:
//   - A TCP socket accepting newline-delimited JSON commands
//   - An MQTT bridge for pub/sub control and status broadcasting
//
// Both transports funnel into one shared command processor, so a pin
// reserved over the socket is equally reserved against MQTT callers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/oweslake/pinwarden/migrations"

	"github.com/oweslake/pinwarden/internal/api"
	"github.com/oweslake/pinwarden/internal/bridge"
	"github.com/oweslake/pinwarden/internal/command"
	"github.com/oweslake/pinwarden/internal/gpio"
	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/infrastructure/database"
	"github.com/oweslake/pinwarden/internal/infrastructure/influxdb"
	"github.com/oweslake/pinwarden/internal/infrastructure/logging"
	"github.com/oweslake/pinwarden/internal/infrastructure/mqtt"
	"github.com/oweslake/pinwarden/internal/infrastructure/tsdb"
	"github.com/oweslake/pinwarden/internal/journal"
	"github.com/oweslake/pinwarden/internal/line"
	"github.com/oweslake/pinwarden/internal/socket"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting pinwarden",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise the command journal
	journalRepo := journal.NewSQLiteRepository(db.DB)

	// Probe for a GPIO backend. Probe failure is not fatal: the daemon
	// starts degraded, transports come up, and every pin command is
	// refused with a backend-unavailable error until restart.
	backend, err := gpio.Probe(cfg.GPIO, log)
	if err != nil {
		log.Warn("no GPIO backend available, running degraded", "error", err)
		backend = nil
	} else {
		defer func() {
			log.Info("closing GPIO backend", "backend", backend.Name())
			if closeErr := backend.Close(); closeErr != nil {
				log.Error("error closing GPIO backend", "error", closeErr)
			}
		}()
		log.Info("GPIO backend ready", "backend", backend.Name())
	}

	// Initialise line registry
	registry := line.NewRegistry(backend)
	registry.SetLogger(log)
	defer func() {
		log.Info("releasing GPIO lines")
		registry.Shutdown()
	}()

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to VictoriaMetrics (optional)
	var tsdbClient *tsdb.Client
	if cfg.TSDB.Enabled {
		tsdbClient, err = tsdb.Connect(ctx, cfg.TSDB)
		if err != nil {
			return fmt.Errorf("connecting to TSDB: %w", err)
		}
		defer func() {
			log.Info("closing TSDB connection")
			if closeErr := tsdbClient.Close(); closeErr != nil {
				log.Error("error closing TSDB", "error", closeErr)
			}
		}()
		log.Info("TSDB connected", "url", cfg.TSDB.URL)

		tsdbClient.SetOnError(func(err error) {
			log.Error("TSDB write error", "error", err)
		})
	} else {
		log.Info("TSDB disabled")
	}

	// Initialise the shared command processor
	processor := command.NewProcessor(registry)
	processor.SetLogger(log)

	// Create (but do not yet start) the TCP socket server, so the API
	// server can report its counters
	socketServer := socket.NewServer(cfg.Socket, processor, log)

	// Connect to MQTT broker and create the bridge (optional). Connect
	// tolerates an unreachable broker: the paho client keeps retrying
	// in the background and tracked subscriptions are applied on every
	// (re)connect.
	var mqttClient *mqtt.Client
	var mqttBridge *bridge.Bridge
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT client started",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		mqttBridge, err = bridge.New(bridge.Options{
			Config:     cfg.MQTT,
			MQTTClient: &mqttBridgeAdapter{client: mqttClient},
			Processor:  processor,
			Lines:      registry,
			Logger:     log,
		})
		if err != nil {
			return fmt.Errorf("creating MQTT bridge: %w", err)
		}
	} else {
		log.Info("MQTT bridge disabled")
	}

	// Create the read-only status API server (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			Registry: registry,
			Journal:  journalRepo,
			Socket:   socketServer,
			DB:       db,
			Version:  version,
		}
		if mqttBridge != nil {
			deps.Bridge = mqttBridge
		}
		apiServer, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
	}

	// Register event sinks. All sinks must be in place before any
	// transport serves its first command.
	processor.AddSink(&journalSink{repo: journalRepo})
	if influxClient != nil {
		processor.AddSink(&influxSink{client: influxClient})
	}
	if tsdbClient != nil {
		processor.AddSink(&tsdbSink{client: tsdbClient})
	}
	if apiServer != nil {
		processor.AddSink(&wsEventSink{server: apiServer})
	}

	// Start the MQTT bridge
	if mqttBridge != nil {
		if startErr := mqttBridge.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			mqttBridge.Stop()
		}()
		log.Info("MQTT bridge started", "topic_prefix", cfg.MQTT.TopicPrefix)
	}

	// Start the API server
	if apiServer != nil {
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started",
			"addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		)
	} else {
		log.Info("API server disabled")
	}

	// Start the TCP socket server. Unlike the broker, a socket bind
	// failure is fatal: the socket is the primary transport.
	if startErr := socketServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting socket server: %w", startErr)
	}
	defer func() {
		log.Info("stopping socket server")
		if closeErr := socketServer.Close(); closeErr != nil {
			log.Error("error closing socket server", "error", closeErr)
		}
	}()
	log.Info("socket server started", "addr", socketServer.Addr())

	// Verify infrastructure is healthy. The broker is deliberately
	// excluded: MQTT reconnects in the background and an offline broker
	// must never take the daemon down.
	if err := healthCheck(ctx, db, influxClient, tsdbClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if mqttClient != nil && !mqttClient.IsConnected() {
		log.Warn("MQTT broker not reachable yet, bridge will connect in background")
	}
	log.Info("all health checks passed")

	if registry.Degraded() {
		log.Warn("running degraded: commands will be refused until a GPIO backend is available")
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// socket, API, bridge, MQTT, TSDB, InfluxDB, registry, backend, database

	log.Info("pinwarden stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PINWARDEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PINWARDEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - tsdbClient: TSDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client, tsdbClient *tsdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if tsdbClient != nil {
		if err := tsdbClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("tsdb: %w", err)
		}
	}

	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
//   - Infrastructure mqtt: func(topic string, payload []byte) error
//   - Bridge expects:      func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// PublishAvailability implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) PublishAvailability() error {
	return a.client.PublishAvailability()
}

// journalSink persists every processed command to the SQLite journal.
type journalSink struct {
	repo journal.Repository
}

// Record implements command.EventSink.
func (s *journalSink) Record(ctx context.Context, evt command.Event) error {
	return s.repo.Create(ctx, &journal.Entry{
		Origin:    evt.Origin,
		Pin:       evt.Pin,
		Action:    string(evt.Action),
		Direction: evt.Direction,
		Value:     evt.Value,
		Success:   evt.Success,
		Error:     evt.Error,
		CreatedAt: evt.CreatedAt,
	})
}

// influxSink forwards processed commands to InfluxDB. Writes are
// buffered by the client; a broken InfluxDB never blocks a command.
type influxSink struct {
	client *influxdb.Client
}

// Record implements command.EventSink.
func (s *influxSink) Record(_ context.Context, evt command.Event) error {
	s.client.WritePinEvent(evt.Origin, string(evt.Action), evt.Pin, evt.Value, evt.Success)
	return nil
}

// tsdbSink forwards processed commands to VictoriaMetrics.
type tsdbSink struct {
	client *tsdb.Client
}

// Record implements command.EventSink.
func (s *tsdbSink) Record(_ context.Context, evt command.Event) error {
	s.client.WritePinEvent(evt.Origin, string(evt.Action), evt.Pin, evt.Value, evt.Success)
	return nil
}

// wsEventSink fans processed commands out to websocket subscribers.
// The hub only exists once the API server has started; events recorded
// before that are silently dropped rather than queued.
type wsEventSink struct {
	server *api.Server
}

// Record implements command.EventSink.
func (s *wsEventSink) Record(_ context.Context, evt command.Event) error {
	if hub := s.server.Hub(); hub != nil {
		hub.Broadcast(api.ChannelPinEvent, evt)
	}
	return nil
}

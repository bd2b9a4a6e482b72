package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oweslake/pinwarden/internal/bridge"
	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/infrastructure/database"
	"github.com/oweslake/pinwarden/internal/infrastructure/logging"
	"github.com/oweslake/pinwarden/internal/journal"
	"github.com/oweslake/pinwarden/internal/line"
	"github.com/oweslake/pinwarden/internal/socket"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SocketStatsProvider reports socket transport counters for the metrics
// endpoint without coupling the API to the server's lifecycle.
type SocketStatsProvider interface {
	Stats() socket.Stats
}

// BridgeMetricsProvider reports MQTT bridge counters for the metrics endpoint.
type BridgeMetricsProvider interface {
	GetMetrics() bridge.Metrics
}

// Deps holds the dependencies required by the API server.
//
// Logger and Registry are mandatory; everything else degrades gracefully
// when absent (see package documentation).
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *line.Registry
	Journal  journal.Repository
	Socket   SocketStatsProvider
	Bridge   BridgeMetricsProvider
	DB       *database.DB
	Version  string
}

// Server is the HTTP status server for Pinwarden.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	registry *line.Registry
	journal  journal.Repository
	socket   SocketStatsProvider
	bridge   BridgeMetricsProvider
	db       *database.DB
	version  string

	server    *http.Server
	hub       *Hub
	startTime time.Time
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("line registry is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		registry: deps.Registry,
		journal:  deps.Journal,
		socket:   deps.Socket,
		bridge:   deps.Bridge,
		db:       deps.DB,
		version:  deps.Version,
	}, nil
}

// Hub returns the WebSocket hub so main can wire it as a processor event
// sink. Nil until Start() has been called.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, builds the router, and launches the HTTP
// listener in a background goroutine. The server is stopped with Close().
//
// Parameters:
//   - ctx: Context the hub's background goroutine is bound to
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.startTime = time.Now()

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/oweslake/pinwarden/internal/command"
	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/infrastructure/logging"
)

// CommandExecutor processes one wire payload and returns the response.
// This allows the server to be tested without a real line registry.
type CommandExecutor interface {
	Execute(ctx context.Context, origin string, payload []byte) command.Response
}

// Stats holds operational statistics.
type Stats struct {
	SessionsTotal  uint64
	SessionsActive int64
	Commands       uint64
	ReadErrors     uint64
}

// Server accepts TCP connections and relays commands to the processor.
//
// Sessions are unbounded: every accepted connection runs its own goroutine
// until the peer disconnects or Close() is called.
type Server struct {
	cfg       config.SocketConfig
	processor CommandExecutor
	logger    *logging.Logger

	listener net.Listener
	cancel   context.CancelFunc

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once

	// Statistics (atomic for performance)
	sessionsTotal  atomic.Uint64
	sessionsActive atomic.Int64
	commands       atomic.Uint64
	readErrors     atomic.Uint64
}

// NewServer creates a socket server. Call Start() to begin accepting.
func NewServer(cfg config.SocketConfig, processor CommandExecutor, logger *logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		processor: processor,
		logger:    logger,
		conns:     make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and launches the accept loop.
// A bind failure is returned to the caller; it is the one transport error
// the daemon treats as fatal.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	// Internal context so Close() can stop sessions independently of the
	// parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("socket server listening", "addr", listener.Addr().String())

	go func() {
		<-srvCtx.Done()
		_ = s.listener.Close()
	}()

	s.wg.Add(1)
	go s.acceptLoop(srvCtx)

	return nil
}

// Addr returns the bound listener address, or empty before Start().
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stats returns current operational statistics.
func (s *Server) Stats() Stats {
	return Stats{
		SessionsTotal:  s.sessionsTotal.Load(),
		SessionsActive: s.sessionsActive.Load(),
		Commands:       s.commands.Load(),
		ReadErrors:     s.readErrors.Load(),
	}
}

// Close stops accepting, disconnects every session and waits for them to
// drain. Safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}

		s.connsMu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connsMu.Unlock()

		s.wg.Wait()
		s.logger.Info("socket server stopped")
	})
	return nil
}

// acceptLoop accepts connections until the listener closes.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("failed to accept connection", "error", err)
			continue
		}

		s.trackConn(conn)
		s.sessionsTotal.Add(1)
		s.sessionsActive.Add(1)

		s.wg.Add(1)
		go s.serveSession(ctx, conn)
	}
}

// serveSession runs the exchange loop for one connection.
func (s *Server) serveSession(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.sessionsActive.Add(-1)
	defer s.untrackConn(conn)
	defer conn.Close() //nolint:errcheck // session teardown

	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", "remote", remote)

	buf := make([]byte, s.cfg.ReadBuffer)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// One read is one command; see the package comment on framing.
		n, err := conn.Read(buf)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Info("client disconnected", "remote", remote)
			case errors.Is(err, net.ErrClosed):
				// Server shutdown closed the conn under us.
			default:
				s.readErrors.Add(1)
				s.logger.Warn("connection read failed", "remote", remote, "error", err)
			}
			return
		}
		if n == 0 {
			return
		}

		resp := s.processor.Execute(ctx, command.OriginSocket, buf[:n])
		s.commands.Add(1)

		payload, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("failed to encode response", "remote", remote, "error", err)
			return
		}
		if _, err := conn.Write(payload); err != nil {
			s.logger.Warn("connection write failed", "remote", remote, "error", err)
			return
		}
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

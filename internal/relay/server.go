// Package relay is the edge HTTP server the storefront UI talks to. It
// holds the provider credential server-side and re-streams completions to
// untrusted browser clients, either as chunked text/plain or over a
// WebSocket.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freshcart/shopmate/internal/config"
	"github.com/freshcart/shopmate/internal/llm"
	"github.com/freshcart/shopmate/internal/logging"
	"github.com/freshcart/shopmate/internal/store"
)

// Streamer is the provider-facing streaming dependency. *llm.StreamClient
// implements it; tests substitute a scripted fake.
type Streamer interface {
	StreamDeltas(ctx context.Context, ex llm.Exchange, onDelta func(delta string) error) error
}

// Server is the relay HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	streamer Streamer

	// Session store (optional — nil disables transcript persistence)
	sessions *store.SessionStore

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the relay server.
type ServerOption func(*Server)

// WithSessionStore enables transcript persistence for relay exchanges.
func WithSessionStore(ss *store.SessionStore) ServerOption {
	return func(s *Server) {
		s.sessions = ss
	}
}

// New creates a relay server.
func New(cfg config.Config, streamer Streamer, log *logging.Logger, opts ...ServerOption) *Server {
	allowedOrigins := cfg.Relay.AllowedOrigins
	s := &Server{
		cfg:      cfg,
		log:      log.Sub("relay"),
		streamer: streamer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(allowedOrigins),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin
// headers. If no origins are configured, only same-origin (no Origin
// header) or non-browser clients are allowed.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.RelayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// routes registers the relay's HTTP routes on the mux.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/ws/chat", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Relay)

	mux := http.NewServeMux()
	s.routes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Relay.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: responses stream for as long as the provider
		// keeps producing deltas.
		IdleTimeout: 120 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Relay.Bind).
		Msg("relay server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down relay server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

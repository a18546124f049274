package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/oscleash/internal/audit"
	"github.com/nerrad567/oscleash/internal/bridges/osc"
	"github.com/nerrad567/oscleash/internal/infrastructure/config"
	"github.com/nerrad567/oscleash/internal/infrastructure/logging"
	"github.com/nerrad567/oscleash/internal/leash"
	"github.com/nerrad567/oscleash/internal/settings"
	"github.com/nerrad567/oscleash/internal/status"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BridgeStatus exposes the bridge counters shown by /status and /health.
type BridgeStatus interface {
	Metrics() osc.Metrics
}

// HealthChecker is implemented by infrastructure clients (database, MQTT,
// InfluxDB).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SettingsStore is the subset of settings.Store the API needs.
type SettingsStore interface {
	Current() settings.Settings
	Update(next settings.Settings) error
	Save() error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Status   *status.Hub
	Bridge   BridgeStatus
	Registry *leash.Registry
	Settings SettingsStore
	Audit    audit.Repository // optional

	// Checks are reported by /health under their map key.
	Checks map[string]HealthChecker

	Version string
}

// Server is the HTTP API server for OSCLeash.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	status   *status.Hub
	bridge   BridgeStatus
	registry *leash.Registry
	settings SettingsStore
	checks   map[string]HealthChecker
	version  string

	auditRepo audit.Repository
	auditCh   chan *audit.AuditLog

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
	wg       sync.WaitGroup
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, status hub, bridge, registry, settings)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Status == nil:
		return nil, fmt.Errorf("status hub is required")
	case deps.Bridge == nil:
		return nil, fmt.Errorf("bridge is required")
	case deps.Registry == nil:
		return nil, fmt.Errorf("leash registry is required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings store is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		status:    deps.Status,
		bridge:    deps.Bridge,
		registry:  deps.Registry,
		settings:  deps.Settings,
		checks:    deps.Checks,
		version:   deps.Version,
		auditRepo: deps.Audit,
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and attaches it to the status hub, starts the
// audit writer, binds the listener and serves in a background goroutine. A
// bind failure is returned directly. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the background goroutines
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding API listener on %s: %w", addr, err)
	}

	s.startBackground(ctx)

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// startBackground creates the WebSocket hub and the audit writer.
func (s *Server) startBackground(ctx context.Context) {
	srvCtx, cancel := context.WithCancel(ctx)

	hub := NewHub(s.wsCfg, s.logger)
	s.mu.Lock()
	s.cancel = cancel
	s.hub = hub
	s.mu.Unlock()

	s.status.Attach(srvCtx, "websocket", hub)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		hub.Run(srvCtx)
	}()

	if s.auditCh != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drainAuditLog(srvCtx)
		}()
	}
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It stops the WebSocket hub, flushes queued audit entries, then waits up to
// 10 seconds for in-flight requests to complete.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if srv == nil {
		return nil
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

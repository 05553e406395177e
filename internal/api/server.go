package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/audit"
	"github.com/nerrad567/blockenergy-core/internal/autosave"
	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/flow"
	"github.com/nerrad567/blockenergy-core/internal/hostbridge"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/config"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies of the API server. Network, Bridge, Autosave,
// Audit and Health are optional.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Registries *capability.Registries
	Network    *flow.Network
	Bridge     *hostbridge.Bridge
	Autosave   *autosave.Scheduler
	Audit      audit.Repository
	Health     map[string]HealthChecker
	Version    string
}

// Server is the admin HTTP server.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	regs     *capability.Registries
	banks    *capability.Registry[*energy.Bank]
	network  *flow.Network
	bridge   *hostbridge.Bridge
	autosave *autosave.Scheduler
	health   map[string]HealthChecker
	version  string
	started  time.Time

	auditRepo audit.Repository
	auditCh   chan *audit.Entry

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registries == nil {
		return nil, fmt.Errorf("capability registries are required")
	}
	banks, err := capability.Standard(deps.Registries)
	if err != nil {
		return nil, fmt.Errorf("standard registry: %w", err)
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		regs:     deps.Registries,
		banks:    banks,
		network:  deps.Network,
		bridge:   deps.Bridge,
		autosave: deps.Autosave,
		health:   deps.Health,
		version:  deps.Version,
		hub:      NewHub(deps.WS, deps.Logger),
	}
	if deps.Audit != nil {
		s.auditRepo = deps.Audit
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}

	if s.network != nil {
		s.network.OnTick(func(r flow.TickReport) {
			s.hub.Broadcast(ChannelTick, r)
		})
	}
	if s.autosave != nil {
		s.autosave.OnResult(func(r autosave.Result) {
			s.hub.Broadcast(ChannelAutosave, r)
		})
	}
	return s, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// NotifyFlush broadcasts a world flush to WebSocket subscribers. reason is
// "saved", "unloaded" or "api".
func (s *Server) NotifyFlush(w string, reason string, written int, err error) {
	ev := FlushEvent{World: w, Reason: reason, Written: written}
	if err != nil {
		ev.Error = err.Error()
	}
	s.hub.Broadcast(ChannelFlush, ev)
}

// Start begins listening in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)
	if s.auditRepo != nil {
		go s.drainAuditLog(srvCtx)
	}

	s.started = time.Now()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close shuts the server down, waiting up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
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

// HealthCheck reports whether Start has been called.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// Package api provides the HTTP facade for Lumen Bridge.
//
// It translates HTTP requests into calls on the bridge core — snapshot
// reads, health queries, and command dispatch — and serialises the results.
// The facade is a thin I/O wrapper: all lifecycle and failure-handling
// logic lives in the bridge package, and no handler ever blocks waiting on
// device liveness.
//
// The server follows the usual lifecycle pattern:
//
//	server := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/lumen-bridge/internal/audit"
	"github.com/nerrad567/lumen-bridge/internal/bridge"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/config"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SnapshotReader reads the current device snapshot. The bridge StateCache
// satisfies it.
type SnapshotReader interface {
	Read() bridge.DeviceState
}

// CommandSender dispatches commands to the device. The bridge Dispatcher
// satisfies it.
type CommandSender interface {
	SendBool(ctx context.Context, on bool) (bridge.Ack, error)
	SendRaw(ctx context.Context, command string) (bridge.Ack, error)
}

// SessionInfo reports broker session liveness. The bridge Supervisor
// satisfies it.
type SessionInfo interface {
	IsConnected() bool
	LastError() string
	State() bridge.SessionState
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Cache      SnapshotReader
	Dispatcher CommandSender
	Session    SessionInfo
	Audit      audit.Repository // optional; command log endpoint returns an empty list when nil
	Version    string
}

// Server is the HTTP API server for Lumen Bridge.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	cache      SnapshotReader
	dispatcher CommandSender
	session    SessionInfo
	audit      audit.Repository
	version    string
	server     *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not listening until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("state cache is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session info is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		session:    deps.Session,
		audit:      deps.Audit,
		version:    deps.Version,
	}, nil
}

// Start begins listening in a background goroutine. It returns immediately;
// listen errors other than graceful close are logged, not returned, because
// by then the caller is already blocked on its shutdown signal.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down gracefully, allowing in-flight requests to
// complete within the shutdown timeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Package server implements the planner HTTP server, REST API and SSE real-time events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/GoCodeAlone/planner/board"
	"github.com/GoCodeAlone/planner/config"
	"github.com/GoCodeAlone/planner/server/api"
	"github.com/GoCodeAlone/planner/server/ws"
)

// Server is the planner HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	mu      sync.Mutex // guards httpSrv
	httpSrv *http.Server
	logger  *slog.Logger

	board *board.Board
	hub   *ws.Hub

	routesOnce sync.Once
	handler    http.Handler

	version string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  logger,
		hub:     ws.NewHub(logger),
		version: ver,
	}
}

// SetBoard attaches the stores the API operates on.
func (s *Server) SetBoard(b *board.Board) {
	s.board = b
}

// Hub returns the SSE hub that receives change events.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Handler returns the fully wired HTTP handler. Routes are registered on first use.
func (s *Server) Handler() http.Handler {
	s.routesOnce.Do(func() {
		s.registerRoutes()
		s.handler = s.requestLogger(s.mux)
	})
	return s.handler
}

// Start listens on the configured address and serves until Stop.
// It returns http.ErrServerClosed after a graceful stop.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":9090"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. Open event streams are closed when Stop begins.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	srv.RegisterOnShutdown(s.hub.Close)

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("server listening",
		slog.String("addr", ln.Addr().String()),
		slog.String("storage", s.cfg.Storage.Driver),
		slog.Bool("reset_enabled", s.cfg.Server.EnableReset),
	)
	return srv.Serve(ln)
}

// Stop gracefully shuts down the HTTP server, ending open event streams first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Agents:  s.board.Agents,
		Tasks:   s.board.Tasks,
		Events:  s.hub,
		Logger:  s.logger,
		Version: s.version,
	}
	if s.cfg.Server.EnableReset {
		h.Reset = s.board.Reset
	}
	h.RegisterRoutes(s.mux)
	s.mux.HandleFunc("GET /events", s.hub.ServeSSE)
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clipforge/internal/library"
	"clipforge/internal/logging"
	"clipforge/internal/segmenter"
	"clipforge/internal/store"
)

// Server owns the HTTP listener for the review and pipeline API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig carries the wired components every handler needs.
type ServerConfig struct {
	Bind       string
	Version    string
	Store      *store.Store
	Importer   *library.Importer
	Segmenter  *segmenter.Segmenter
	Dispatcher *segmenter.Dispatcher
	Logger     *slog.Logger
	StartTime  time.Time
	// BaseContext outlives individual requests so fire-and-forget
	// generation runs are not cancelled when the request closes.
	BaseContext context.Context
}

// NewServer builds the HTTP server around the router.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Bind,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start listens until Shutdown. A closed-server error is not reported.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

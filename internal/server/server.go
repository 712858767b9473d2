// Package server provides the HTTP API for docvault.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/app"
	"github.com/hyperjump/docvault/internal/config"
)

// WatchService manages inbox directories at runtime. May be nil when no watcher runs.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the docvault API.
type Server struct {
	svc    *app.Service
	config *config.Config
	logger *zap.Logger
	server *http.Server

	watch      WatchService
	configPath string // when set, watch directory changes are persisted here
	configMu   sync.Mutex
}

// NewServer creates a server. watch and configPath are optional.
func NewServer(svc *app.Service, cfg *config.Config, logger *zap.Logger, watch WatchService, configPath string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:        svc,
		config:     cfg,
		logger:     logger,
		watch:      watch,
		configPath: configPath,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Post("/search", s.handleSearch)
		r.Get("/history", s.handleHistory)
		r.Get("/history/export", s.handleHistoryExport)
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
// It returns http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

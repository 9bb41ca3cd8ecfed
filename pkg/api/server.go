// Package api exposes flow management and execution over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server
const ShutdownTimeout = 10 * time.Second

// Server represents the HTTP API server
type Server struct {
	host     string
	port     int
	router   *mux.Router
	server   *http.Server
	store    storage.FlowStore
	executor *engine.Executor
	logger   logging.Logger
}

// NewServer creates a new API server
func NewServer(host string, port int, store storage.FlowStore, executor *engine.Executor, logger logging.Logger) *Server {
	s := &Server{
		host:     host,
		port:     port,
		router:   mux.NewRouter(),
		store:    store,
		executor: executor,
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

// Handler returns the configured router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", logging.F("addr", addr))

	err := s.server.ListenAndServe()
	// Expected when the server is shut down gracefully
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	flows := api.PathPrefix("/flows").Subrouter()
	flows.HandleFunc("", s.handleListFlows).Methods(http.MethodGet)
	flows.HandleFunc("", s.handleCreateFlow).Methods(http.MethodPost)
	flows.HandleFunc("/{name}", s.handleGetFlow).Methods(http.MethodGet)
	flows.HandleFunc("/{name}", s.handleUpdateFlow).Methods(http.MethodPut)
	flows.HandleFunc("/{name}", s.handleDeleteFlow).Methods(http.MethodDelete)
	flows.HandleFunc("/{name}/rename", s.handleRenameFlow).Methods(http.MethodPost)
	flows.HandleFunc("/{name}/enable", s.handleEnableFlow).Methods(http.MethodPost)
	flows.HandleFunc("/{name}/disable", s.handleDisableFlow).Methods(http.MethodPost)
	flows.HandleFunc("/{name}/run", s.handleRunFlow).Methods(http.MethodPost)
}

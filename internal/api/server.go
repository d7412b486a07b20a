// Package api serves building generation over HTTP.
//
// Routes:
//
//	GET    /healthz                  liveness and build version
//	POST   /v1/plans                 generate a plan from the config in the body
//	GET    /v1/plans                 list stored plan ids
//	GET    /v1/plans/{id}            load a stored plan
//	DELETE /v1/plans/{id}            remove a stored plan
//	GET    /v1/plans/{id}/graph.svg  render the link graph of a stored plan
//
// POST accepts the query parameters building, seed and format (the config
// syntax: yaml, json or toml). Errors are JSON objects carrying the error
// code and a user-facing message.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NyankoNyan/buildgen/pkg/pipeline"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

const (
	// DefaultMaxBodyBytes limits the size of an uploaded config.
	DefaultMaxBodyBytes = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP front end of a pipeline runner and a plan store.
type Server struct {
	runner       *pipeline.Runner
	store        plan.Store
	logger       *log.Logger
	maxBodyBytes int64
	router       chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBodyBytes = n } }

// NewServer wires the routes. Generated plans are saved to store and the
// runner's cache also holds rendered graphs.
func NewServer(runner *pipeline.Runner, store plan.Store, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		store:        store,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/plans", func(r chi.Router) {
		r.Post("/", s.handleCreatePlan)
		r.Get("/", s.handleListPlans)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Delete("/", s.handleDeletePlan)
			r.Get("/graph.svg", s.handleGraph)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// Package server exposes the definekit pipeline over HTTP.
//
// Inputs are posted as the raw request body; query parameters carry the
// options. Every request is handled by one pipeline run and no model is
// shared between requests.
//
// # Routes
//
//	POST   /v1/check                 bind or import, normalize, return the report
//	POST   /v1/convert?to=xlsx|xml   same, then return the serialized model
//	POST   /v1/lineage               analysis results lineage as DOT or SVG
//	GET    /v1/archive               archived defines (when an archive is configured)
//	GET    /v1/archive/{fileOID}     one archived Define-XML document
//	DELETE /v1/archive/{fileOID}     remove an archived define
//	GET    /healthz                  liveness
//	GET    /metrics                  Prometheus metrics (when metrics are configured)
//
// Errors are answered with a JSON body {"error": {"code", "message"},
// "request_id"} and the status from [errors.HTTPStatus].
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/definekit/internal/metrics"
	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 64 << 20

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner

	// Defaults are applied to every request before its query parameters.
	Defaults pipeline.Options

	// Archive enables the archive routes and ?archive=true on convert.
	Archive archive.Store

	// Metrics enables /metrics and request metrics.
	Metrics *metrics.Metrics

	Logger       *log.Logger
	MaxBodyBytes int64
	Now          func() time.Time
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	router chi.Router
}

// New creates a Server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Post("/convert", s.handleConvert)
		r.Post("/lineage", s.handleLineage)
		if s.opts.Archive != nil {
			r.Get("/archive", s.handleArchiveList)
			r.Get("/archive/{fileOID}", s.handleArchiveGet)
			r.Delete("/archive/{fileOID}", s.handleArchiveDelete)
		}
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting at most ten seconds for running requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

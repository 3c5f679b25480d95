// Package server exposes trial evaluation, segmentation and stored records
// over HTTP.
//
// # Routes
//
//	GET  /healthz
//	POST /v1/segments                      split a pattern into segments
//	POST /v1/trials                        cut one ordering and score it
//	GET  /v1/experiments/{name}            list stored variants
//	GET  /v1/experiments/{name}/{variant}  fetch a stored record
//
// Request bodies carry the pattern inline, in the same JSON form as pattern
// files. Errors are returned as {"code": ..., "error": ...} with a status
// derived from the error code.
//
// Handlers share one [pipeline.Runner], so trials hit the runner's cache
// and records come from its store.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/httputil"
	"github.com/matzehuels/gauzecut/pkg/observability"
	"github.com/matzehuels/gauzecut/pkg/pipeline"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultAddr is the listen address of `gauzecut serve`.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultTimeout bounds the handling of a single request.
	DefaultTimeout = 2 * time.Minute

	// shutdownGrace is how long in-flight requests get on shutdown.
	shutdownGrace = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr      string        `toml:"addr" json:"addr"`
	Timeout   time.Duration `toml:"timeout" json:"timeout"`
	BodyLimit int64         `toml:"body_limit" json:"body_limit"`
}

// SetDefaults fills zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BodyLimit == 0 {
		o.BodyLimit = httputil.DefaultBodyLimit
	}
}

// Server is the HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router
}

// New returns a server backed by runner. A nil logger discards output.
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	opts.SetDefaults()
	s := &Server{runner: runner, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/segments", s.handleSegments)
		r.Post("/trials", s.handleTrial)
		r.Get("/experiments/{name}", s.handleVariants)
		r.Get("/experiments/{name}/{variant}", s.handleRecord)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, gerrors.New(gerrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on opts.Addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.opts.Addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// observe reports every request to the HTTP hooks and the debug log. Paths
// are reported as route patterns.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, path, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Package server exposes the placement engine over HTTP.
//
// Every request carries a complete one-shot scene (viewport, floating size
// and either a trigger rect or a cursor point). The scene is loaded into an
// in-memory provider and placed through the same service the CLI uses, so
// validation, logging and hooks behave identically.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/place/around   {"trigger": {...}, "floating": {...}, "viewport": {...}, "options": {...}}
//	POST /v1/place/cursor   {"cursor": {...}, "floating": {...}, "viewport": {...}, "options": {...}}
//
// Placement routes answer with JSON, or with an SVG preview when called with
// ?format=svg.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/matzehuels/anchor/pkg/config"
	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/observability"
	"github.com/matzehuels/anchor/pkg/placement"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP front end. Create it with New.
type Server struct {
	addr     string
	defaults placement.Options
	limiter  *rate.Limiter
	logger   *log.Logger
	router   chi.Router
}

// New builds a server from the configuration. A nil logger uses log.Default().
func New(cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		addr:     cfg.Server.Addr,
		defaults: cfg.PlacementOptions(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.Server.Rate), cfg.Server.Burst),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/place", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/around", s.handleAround)
		r.Post("/cursor", s.handleCursor)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", status,
			"duration", elapsed.Round(time.Microsecond), "id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeError(w, &errs.RateLimitedError{RetryAfter: 1, Message: "too many placement requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

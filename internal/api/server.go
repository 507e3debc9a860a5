// Package api serves the tabscribe messaging surface over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/lens"
	"github.com/tabscribe/tabscribe/internal/ops"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

const (
	maxRequestBodySize = 16 << 20
	shutdownTimeout    = 5 * time.Second
	eventBuffer        = 64
)

// Deps are the services the API operates on. Lens, Finder, Transformer and
// Sweeper may be nil; their routes then answer INVALID_REQUEST.
type Deps struct {
	Store       *store.Store
	Settings    *settings.Settings
	Config      *config.Config
	Lens        *lens.Orchestrator
	Finder      ops.SimilarFinder
	Transformer ops.Transformer
	Sweeper     ops.Sweeper
	Logger      *zap.SugaredLogger
}

type handlers struct {
	Deps
	log *zap.SugaredLogger
}

// NewRouter returns the API routes wrapped in logging and security headers.
func NewRouter(deps Deps) http.Handler {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &handlers{Deps: deps, log: log}

	r := chi.NewRouter()
	r.Use(securityHeaders)
	r.Use(withLogging(log))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/mode", h.getMode)
		r.Put("/mode", h.setMode)
		r.Get("/events", h.events)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.listCards)
			r.Post("/", h.captureCard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getCard)
				r.Patch("/", h.updateCard)
				r.Post("/tags", h.tagCard)
				r.Post("/actions", h.applyAction)
				r.Post("/trash", h.trashCard)
				r.Post("/restore", h.restoreCard)
				r.Post("/purge", h.purgeCard)
				r.Get("/lens", h.getLens)
				r.Get("/similar", h.similar)
			})
		})

		r.Get("/trash", h.listTrash)
		r.Delete("/trash", h.emptyTrash)
		r.Post("/trash/sweep", h.sweep)

		r.Get("/export", h.export)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.listProjects)
			r.Post("/", h.createProject)
			r.Patch("/{id}", h.renameProject)
			r.Delete("/{id}", h.deleteProject)
			r.Post("/{id}/use", h.useProject)
		})
	})

	return r
}

// NewServer creates the HTTP server for the API.
func NewServer(deps Deps, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

// Flush lets server-sent events pass through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func withLogging(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			log.Infow("request",
				"method", r.Method,
				"uri", r.RequestURI,
				"status", rec.status,
				"size", rec.size,
				"duration", time.Since(start),
			)
		})
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Request contexts derive from ctx so open event streams end with it.
func Run(ctx context.Context, srv *http.Server, log *zap.SugaredLogger) error {
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Infof("tabscribe API listening on http://%s", srv.Addr)

	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Package router provides HTTP routing configuration for the webhook service.
package router

import (
	"log/slog"
	"net/http"

	"github.com/pjscruggs/slogcp/slogcphttp"

	"github.com/comicrelief/loggly-slack-alerts/internal/handlers"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *handlers.Handlers
	logger   *slog.Logger
	counters counterRecorder
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the base logger for request-scoped loggers.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRequestCounters counts requests by method and status class.
func WithRequestCounters(c counterRecorder) Option {
	return func(r *Router) {
		r.counters = c
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *handlers.Handlers, opts ...Option) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes.
func (r *Router) setupRoutes() {
	requestLogging := slogcphttp.Middleware(slogcphttp.WithLogger(r.logger))

	r.mux.Handle("/alert", requestLogging(http.HandlerFunc(r.handlers.HandleAlert)))

	r.mux.HandleFunc("/api/v1/metrics", r.handlers.GetMetrics)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return metricsMiddleware(r.counters)(r.mux)
}

package router

import (
	"net/http"
	"time"

	"github.com/comicrelief/loggly-slack-alerts/internal/handlers"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, opts ...Option) *http.Server {
	router := NewRouter(h, opts...)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

package router

import (
	"fmt"
	"net/http"
	"strings"
)

// counterRecorder is the subset of *metrics.Collector the middleware needs.
type counterRecorder interface {
	IncrementCustom(name string)
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware counts requests as http_<METHOD> and http_<N>xx.
func metricsMiddleware(counters counterRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counters == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Skip metrics and health endpoints
			if r.URL.Path == "/api/v1/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			counters.IncrementCustom("http_" + strings.ToUpper(r.Method))
			counters.IncrementCustom(fmt.Sprintf("http_%dxx", wrapped.statusCode/100))
		})
	}
}

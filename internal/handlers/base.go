// Package handlers provides HTTP handlers for the Loggly webhook.
package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	"github.com/comicrelief/loggly-slack-alerts/internal/processor"
	"github.com/comicrelief/loggly-slack-alerts/pkg/metrics"
)

// DefaultMaxBodyBytes limits the inbound alert body.
const DefaultMaxBodyBytes = 1 << 20

// AlertProcessor turns a decoded alert into a notification.
type AlertProcessor interface {
	ProcessAlert(ctx context.Context, invocationID string, env *events.AlertEnvelope) *processor.Result
}

// MetricsSource provides the current metrics snapshot.
type MetricsSource interface {
	GetSnapshot() *metrics.ServiceMetrics
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	processor    AlertProcessor
	metrics      MetricsSource
	maxBodyBytes int64
	newID        func() string
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMaxBodyBytes sets the inbound body limit. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithMetricsSource exposes m on the metrics endpoint.
func WithMetricsSource(m MetricsSource) Option {
	return func(h *Handlers) {
		h.metrics = m
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(p AlertProcessor, opts ...Option) *Handlers {
	h := &Handlers{
		processor:    p,
		maxBodyBytes: DefaultMaxBodyBytes,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

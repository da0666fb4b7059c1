package processor

import (
	"context"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	"github.com/comicrelief/loggly-slack-alerts/internal/sender/payload"
)

// Deduplicator decides whether a raw entry has not been seen before.
type Deduplicator interface {
	ShouldProcess(ctx context.Context, raw string) bool
}

// Notifier delivers the chat message.
type Notifier interface {
	Notify(ctx context.Context, message string, attachments []payload.Attachment) error
}

// Publisher emits the processed alert event.
type Publisher interface {
	Publish(ctx context.Context, processed *events.AlertProcessed) error
}

// Dispatcher runs deliveries without the caller waiting on them.
type Dispatcher interface {
	Go(operation string, fn func(ctx context.Context) error)
}

// Package sender provides a coordinator for chat notification delivery.
// Notifiers are registered by type and every delivery runs in the background
// so the webhook response never waits on a downstream API.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comicrelief/loggly-slack-alerts/internal/sender/payload"
)

// DefaultTimeout bounds a single background delivery.
const DefaultTimeout = 10 * time.Second

// Notifier is the interface that all delivery strategies must implement.
type Notifier interface {
	// Notify delivers the header message with its attachments.
	Notify(ctx context.Context, message string, attachments []payload.Attachment) error

	// Type returns the delivery type this notifier handles (e.g., "slack").
	Type() string
}

// Registry manages notifiers by type.
type Registry struct {
	notifiers map[string]Notifier
}

// NewRegistry creates a registry holding the given notifiers.
func NewRegistry(notifiers ...Notifier) *Registry {
	r := &Registry{notifiers: make(map[string]Notifier)}
	for _, n := range notifiers {
		r.Register(n)
	}
	return r
}

// Register adds a notifier, replacing any previous one of the same type.
func (r *Registry) Register(n Notifier) {
	r.notifiers[n.Type()] = n
}

// Get retrieves a notifier by type.
func (r *Registry) Get(notifierType string) (Notifier, bool) {
	n, ok := r.notifiers[notifierType]
	return n, ok
}

// List returns all registered types in sorted order.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.notifiers))
	for t := range r.notifiers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Sender delivers a message to every registered notifier.
type Sender struct {
	registry *Registry
}

// NewSender creates a sender coordinator over registry.
func NewSender(registry *Registry) *Sender {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Sender{registry: registry}
}

// Notify sends to all notifiers. It fails only when every notifier failed.
func (s *Sender) Notify(ctx context.Context, message string, attachments []payload.Attachment) error {
	types := s.registry.List()
	if len(types) == 0 {
		slog.WarnContext(ctx, "No notifiers registered, message dropped")
		return nil
	}

	var errs []string
	for _, t := range types {
		n, _ := s.registry.Get(t)
		if err := n.Notify(ctx, message, attachments); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", t, err.Error()))
		}
	}

	if len(errs) == len(types) {
		return fmt.Errorf("all sends failed: %s", strings.Join(errs, "; "))
	}
	if len(errs) > 0 {
		slog.WarnContext(ctx, "Some sends failed",
			"successful", len(types)-len(errs),
			"failed", len(errs),
			"errors", strings.Join(errs, "; "),
		)
	}
	return nil
}

// Type identifies the coordinator when it is used as a Notifier itself.
func (s *Sender) Type() string {
	return "fanout"
}

// Recorder receives the outcome of each background operation.
type Recorder interface {
	RecordPublished()
	RecordError()
}

type noopRecorder struct{}

func (noopRecorder) RecordPublished() {}
func (noopRecorder) RecordError()     {}

// Dispatcher runs fire-and-forget operations on their own goroutines.
// Each operation gets a fresh context with a timeout, detached from the caller.
type Dispatcher struct {
	timeout  time.Duration
	recorder Recorder
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(timeout time.Duration, recorder Recorder) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Dispatcher{timeout: timeout, recorder: recorder}
}

// Go starts fn in the background. Failures are logged and counted, never returned.
func (d *Dispatcher) Go(operation string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			d.recorder.RecordError()
			slog.Error("Background operation failed",
				"operation", operation,
				"duration", time.Since(start),
				"error", err,
			)
			return
		}
		d.recorder.RecordPublished()
		slog.Debug("Background operation completed",
			"operation", operation,
			"duration", time.Since(start),
		)
	}()
}

// Wait blocks until every started operation has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// WaitContext waits like Wait but gives up when ctx is done.
func (d *Dispatcher) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

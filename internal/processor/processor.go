// Package processor turns one Loggly alert into a chat notification.
// It applies the positional entry ceiling, gates entries through the dedup filter,
// normalizes the survivors in input order and hands the result to the dispatcher.
package processor

import (
	"context"
	"time"

	"github.com/pjscruggs/slogcp"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	"github.com/comicrelief/loggly-slack-alerts/internal/normalizer"
	"github.com/comicrelief/loggly-slack-alerts/internal/sender/payload"
)

// DefaultMaxHits is how many recent hits, by position, are considered per alert.
const DefaultMaxHits = 20

// Result is the outcome of processing one alert.
type Result struct {
	InvocationID string
	Message      string
	Records      []normalizer.Record
	Attachments  []payload.Attachment

	// Received is the number of entries in the envelope.
	Received int
	// Considered is the number of entries within the ceiling.
	Considered int
	// Deduplicated is the number of considered entries dropped as already seen.
	Deduplicated int
	// BeyondLimit is the number of entries past the ceiling.
	BeyondLimit int
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxHits overrides the positional ceiling. Values below 1 are ignored.
func WithMaxHits(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxHits = n
		}
	}
}

// WithMetrics records processing metrics to c.
func WithMetrics(c metricsCollector) Option {
	return func(p *Processor) {
		p.metrics = wrapMetrics(c)
	}
}

// WithPublisher also emits an AlertProcessed event for every alert.
func WithPublisher(pub Publisher) Option {
	return func(p *Processor) {
		p.publisher = pub
	}
}

// Processor orchestrates dedup, normalization and delivery for a single alert.
type Processor struct {
	normalizer *normalizer.Normalizer
	filter     Deduplicator
	notifier   Notifier
	dispatcher Dispatcher
	publisher  Publisher
	metrics    Metrics
	maxHits    int
	now        func() time.Time
}

// NewProcessor creates a new alert processor.
func NewProcessor(norm *normalizer.Normalizer, filter Deduplicator, notifier Notifier, dispatcher Dispatcher, opts ...Option) *Processor {
	if norm == nil {
		norm = normalizer.New()
	}
	p := &Processor{
		normalizer: norm,
		filter:     filter,
		notifier:   notifier,
		dispatcher: dispatcher,
		metrics:    NoOpMetrics{},
		maxHits:    DefaultMaxHits,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessAlert builds the notification for env and dispatches it. The returned result
// reflects what was handed to the notifier; delivery itself happens in the background.
func (p *Processor) ProcessAlert(ctx context.Context, invocationID string, env *events.AlertEnvelope) *Result {
	startTime := p.now()
	p.metrics.RecordReceived()

	hits := env.RecentHits
	considered := hits
	if len(considered) > p.maxHits {
		considered = considered[:p.maxHits]
	}

	result := &Result{
		InvocationID: invocationID,
		Message:      payload.BuildHeaderMessage(env),
		Received:     len(hits),
		Considered:   len(considered),
		BeyondLimit:  len(hits) - len(considered),
	}

	logger := slogcp.Logger(ctx)
	for i, raw := range considered {
		if !p.filter.ShouldProcess(ctx, string(raw)) {
			result.Deduplicated++
			continue
		}
		rec := p.normalizer.Normalize(string(raw))
		logger.DebugContext(ctx, "Normalized log entry",
			"position", i,
			"kind", rec.Kind.String(),
			"color", rec.Color,
		)
		result.Records = append(result.Records, rec)
	}
	result.Attachments = payload.BuildAttachments(result.Records)

	logger.InfoContext(ctx, "Processed alert",
		"invocation_id", invocationID,
		"alert_name", env.AlertName,
		"received", result.Received,
		"considered", result.Considered,
		"deduplicated", result.Deduplicated,
		"beyond_limit", result.BeyondLimit,
		"records", len(result.Records),
	)

	p.dispatch(env, result)
	p.recordMetrics(result, startTime)

	return result
}

func (p *Processor) dispatch(env *events.AlertEnvelope, result *Result) {
	message, attachments := result.Message, result.Attachments
	p.dispatcher.Go("notify "+result.InvocationID, func(ctx context.Context) error {
		return p.notifier.Notify(ctx, message, attachments)
	})

	if p.publisher == nil {
		return
	}
	processed := &events.AlertProcessed{
		InvocationID:        result.InvocationID,
		SchemaVersion:       events.SchemaVersion,
		AlertName:           env.AlertName,
		SearchLink:          env.SearchLink,
		StartTime:           env.StartTime,
		EndTime:             env.EndTime,
		Message:             result.Message,
		EntriesReceived:     result.Received,
		EntriesConsidered:   result.Considered,
		EntriesDeduplicated: result.Deduplicated,
		EntriesBeyondLimit:  result.BeyondLimit,
		Records:             payload.BuildEventRecords(result.Records),
		ProcessedAt:         p.now().Unix(),
	}
	p.dispatcher.Go("publish "+result.InvocationID, func(ctx context.Context) error {
		return p.publisher.Publish(ctx, processed)
	})
}

func (p *Processor) recordMetrics(result *Result, startTime time.Time) {
	if result.Deduplicated > 0 {
		p.metrics.AddCustom(CounterEntriesDeduplicated, uint64(result.Deduplicated))
	}
	if result.BeyondLimit > 0 {
		p.metrics.AddCustom(CounterEntriesBeyondLimit, uint64(result.BeyondLimit))
	}
	for _, rec := range result.Records {
		switch rec.Kind {
		case normalizer.KindJSON:
			p.metrics.IncrementCustom(CounterRecordsJSON)
		case normalizer.KindPlainText:
			p.metrics.IncrementCustom(CounterRecordsPlainText)
		default:
			p.metrics.IncrementCustom(CounterRecordsUnparsed)
		}
	}
	p.metrics.RecordProcessed(p.now().Sub(startTime))
}

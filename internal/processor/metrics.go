package processor

import "time"

// Custom counter names recorded per alert.
const (
	CounterEntriesDeduplicated = "entries_deduplicated"
	CounterEntriesBeyondLimit  = "entries_beyond_limit"
	CounterRecordsJSON         = "records_json"
	CounterRecordsPlainText    = "records_plain_text"
	CounterRecordsUnparsed     = "records_unparsed"
)

// Metrics defines the interface for recording processor metrics.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordReceived increments the count of alerts received.
	RecordReceived()
	// RecordProcessed records the processing duration for a single alert.
	RecordProcessed(duration time.Duration)
	// IncrementCustom increments a custom counter by name.
	IncrementCustom(name string)
	// AddCustom adds a value to a custom counter by name.
	AddCustom(name string, value uint64)
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordReceived()               {}
func (NoOpMetrics) RecordProcessed(time.Duration) {}
func (NoOpMetrics) IncrementCustom(string)        {}
func (NoOpMetrics) AddCustom(string, uint64)      {}

// metricsCollector is the minimal interface we need from *metrics.Collector.
type metricsCollector interface {
	RecordReceived()
	RecordProcessed(duration time.Duration)
	IncrementCustom(name string)
	AddCustom(name string, value uint64)
}

// collectorAdapter adapts *metrics.Collector to the Metrics interface.
type collectorAdapter struct {
	c metricsCollector
}

func (a *collectorAdapter) RecordReceived()                   { a.c.RecordReceived() }
func (a *collectorAdapter) RecordProcessed(d time.Duration)   { a.c.RecordProcessed(d) }
func (a *collectorAdapter) IncrementCustom(name string)       { a.c.IncrementCustom(name) }
func (a *collectorAdapter) AddCustom(name string, val uint64) { a.c.AddCustom(name, val) }

// wrapMetrics wraps a metricsCollector (or nil) into a Metrics interface.
func wrapMetrics(c metricsCollector) Metrics {
	if c == nil {
		return NoOpMetrics{}
	}
	return &collectorAdapter{c: c}
}

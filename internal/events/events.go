// Package events defines the inbound Loggly alert envelope and the alert.processed event.
package events

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

const (
	// SchemaVersion is the current version of the AlertProcessed event schema.
	SchemaVersion = 1
)

// ErrInvalidEnvelope is returned when the inbound alert body cannot be decoded.
var ErrInvalidEnvelope = errors.New("invalid alert envelope")

// RawLogEntry is one recent hit as delivered by Loggly. It is usually a string holding
// a (sometimes broken) JSON document or a plain-text line.
type RawLogEntry string

// UnmarshalJSON accepts a JSON string, used verbatim, or any other JSON value, which is
// kept as its compact JSON text.
func (e *RawLogEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*e = RawLogEntry(s)
		return nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return err
	}
	*e = RawLogEntry(buf.String())
	return nil
}

// AlertEnvelope is the payload Loggly posts when an alert fires.
type AlertEnvelope struct {
	AlertName  string        `json:"alert_name"`
	SearchLink string        `json:"search_link"`
	StartTime  string        `json:"start_time"`
	EndTime    string        `json:"end_time"`
	RecentHits []RawLogEntry `json:"recent_hits"`
}

// DecodeEnvelope parses an inbound alert body. Any failure wraps ErrInvalidEnvelope.
func DecodeEnvelope(body []byte) (*AlertEnvelope, error) {
	var env AlertEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &env, nil
}

// Record is the published form of one normalized log entry.
type Record struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Footer string `json:"footer,omitempty"`
	Color  string `json:"color"`
}

// AlertProcessed is emitted after an alert has been normalized and handed to the notifier.
type AlertProcessed struct {
	InvocationID        string   `json:"invocation_id"`
	SchemaVersion       int      `json:"schema_version"`
	AlertName           string   `json:"alert_name"`
	SearchLink          string   `json:"search_link"`
	StartTime           string   `json:"start_time"`
	EndTime             string   `json:"end_time"`
	Message             string   `json:"message"`
	EntriesReceived     int      `json:"entries_received"`
	EntriesConsidered   int      `json:"entries_considered"`
	EntriesDeduplicated int      `json:"entries_deduplicated"`
	EntriesBeyondLimit  int      `json:"entries_beyond_limit"`
	Records             []Record `json:"records"`
	ProcessedAt         int64    `json:"processed_at"`
}

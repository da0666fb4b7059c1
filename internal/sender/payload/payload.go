// Package payload provides builders for the outbound chat message.
package payload

import (
	"fmt"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	"github.com/comicrelief/loggly-slack-alerts/internal/normalizer"
)

// Attachment is a single structured block of a chat message.
type Attachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Footer string `json:"footer,omitempty"`
}

// BuildHeaderMessage builds the message line shown above the per-entry attachments.
func BuildHeaderMessage(env *events.AlertEnvelope) string {
	return fmt.Sprintf("*%s* <%s|More details> (From:%s To:%s)",
		env.AlertName, env.SearchLink, env.StartTime, env.EndTime)
}

// BuildAttachment projects a normalized record onto the attachment shape.
func BuildAttachment(rec normalizer.Record) Attachment {
	return Attachment{
		Color:  rec.Color,
		Title:  rec.Title,
		Text:   rec.Text,
		Footer: rec.Footer,
	}
}

// BuildAttachments projects records in order.
func BuildAttachments(records []normalizer.Record) []Attachment {
	attachments := make([]Attachment, 0, len(records))
	for _, rec := range records {
		attachments = append(attachments, BuildAttachment(rec))
	}
	return attachments
}

// BuildEventRecords converts records to their published event form.
func BuildEventRecords(records []normalizer.Record) []events.Record {
	out := make([]events.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, events.Record{
			Kind:   rec.Kind.String(),
			Text:   rec.Text,
			Title:  rec.Title,
			Footer: rec.Footer,
			Color:  rec.Color,
		})
	}
	return out
}

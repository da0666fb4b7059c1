package processor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/comicrelief/loggly-slack-alerts/internal/dedup"
	"github.com/comicrelief/loggly-slack-alerts/internal/events"
	"github.com/comicrelief/loggly-slack-alerts/internal/normalizer"
	"github.com/comicrelief/loggly-slack-alerts/internal/sender/payload"
)

// inlineDispatcher runs operations synchronously so tests can observe them.
type inlineDispatcher struct {
	operations []string
	errs       []error
}

func (d *inlineDispatcher) Go(operation string, fn func(ctx context.Context) error) {
	d.operations = append(d.operations, operation)
	d.errs = append(d.errs, fn(context.Background()))
}

type mockNotifier struct {
	calls       int
	message     string
	attachments []payload.Attachment
	err         error
}

func (m *mockNotifier) Notify(ctx context.Context, message string, attachments []payload.Attachment) error {
	m.calls++
	m.message = message
	m.attachments = attachments
	return m.err
}

type mockPublisher struct {
	published []*events.AlertProcessed
}

func (m *mockPublisher) Publish(ctx context.Context, processed *events.AlertProcessed) error {
	m.published = append(m.published, processed)
	return nil
}

func newTestProcessor(opts ...Option) (*Processor, *mockNotifier, *inlineDispatcher) {
	notifier := &mockNotifier{}
	dispatcher := &inlineDispatcher{}
	p := NewProcessor(normalizer.New(), dedup.NewFilter(dedup.NewMemoryCache()), notifier, dispatcher, opts...)
	return p, notifier, dispatcher
}

func envelope(hits ...string) *events.AlertEnvelope {
	env := &events.AlertEnvelope{
		AlertName:  "Donate errors",
		SearchLink: "https://comicrelief.loggly.com/search#terms=x",
		StartTime:  "Mar 1 10:00:00",
		EndTime:    "Mar 1 10:05:00",
	}
	for _, h := range hits {
		env.RecentHits = append(env.RecentHits, events.RawLogEntry(h))
	}
	return env
}

func distinctHits(n int) []string {
	hits := make([]string, n)
	for i := range hits {
		hits[i] = fmt.Sprintf(`{"message":"entry %d","channel":"c","level_name":"INFO"}`, i+1)
	}
	return hits
}

func TestProcessAlert_Scenarios(t *testing.T) {
	p, notifier, _ := newTestProcessor()

	env := envelope(
		`{"message":"x","channel":"c","level_name":"ERROR","context":{"env":"prod"}}`,
		`app.space.service.sub: Got error 'boom'`,
		`random garbage`,
		`{"VCAP_APPLICATION":"{"application_id":"abc","limits":{"mem":512}}","message":"repaired","channel":"api","level_name":"WARNING","context":{"APPLICATION_ENV":"staging"}}`,
	)
	result := p.ProcessAlert(context.Background(), "inv-1", env)

	want := []payload.Attachment{
		{Color: "danger", Title: "c", Text: "x", Footer: "prod"},
		{Color: "#000000", Title: "service", Text: "boom", Footer: "space"},
		{Color: "#00ff00", Text: "random garbage", Footer: "Could not parse"},
		{Color: "warning", Title: "api", Text: "repaired", Footer: "staging"},
	}
	if diff := cmp.Diff(want, result.Attachments); diff != "" {
		t.Errorf("Attachments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, notifier.attachments); diff != "" {
		t.Errorf("notified attachments mismatch (-want +got):\n%s", diff)
	}

	wantMessage := "*Donate errors* <https://comicrelief.loggly.com/search#terms=x|More details> (From:Mar 1 10:00:00 To:Mar 1 10:05:00)"
	if notifier.message != wantMessage {
		t.Errorf("message = %q, want %q", notifier.message, wantMessage)
	}

	kinds := []normalizer.Kind{normalizer.KindJSON, normalizer.KindPlainText, normalizer.KindUnparsed, normalizer.KindJSON}
	for i, rec := range result.Records {
		if rec.Kind != kinds[i] {
			t.Errorf("record %d kind = %v, want %v", i, rec.Kind, kinds[i])
		}
	}
}

func TestProcessAlert_BatchCeiling(t *testing.T) {
	p, notifier, _ := newTestProcessor()

	result := p.ProcessAlert(context.Background(), "inv-1", envelope(distinctHits(25)...))

	if result.Received != 25 || result.Considered != 20 || result.BeyondLimit != 5 {
		t.Errorf("counts = received %d considered %d beyond %d, want 25/20/5",
			result.Received, result.Considered, result.BeyondLimit)
	}
	if len(notifier.attachments) != 20 {
		t.Fatalf("attachments = %d, want 20", len(notifier.attachments))
	}
	for i, a := range notifier.attachments {
		if want := fmt.Sprintf("entry %d", i+1); a.Text != want {
			t.Errorf("attachment %d text = %q, want %q", i, a.Text, want)
		}
	}
}

func TestProcessAlert_CeilingIsPositional(t *testing.T) {
	p, notifier, _ := newTestProcessor()

	// Entry 2 duplicates entry 1, so only 19 of the first 20 survive; 21-25 stay excluded.
	hits := distinctHits(25)
	hits[1] = hits[0]

	result := p.ProcessAlert(context.Background(), "inv-1", envelope(hits...))

	if result.Deduplicated != 1 {
		t.Errorf("Deduplicated = %d, want 1", result.Deduplicated)
	}
	if len(notifier.attachments) != 19 {
		t.Fatalf("attachments = %d, want 19", len(notifier.attachments))
	}
	for _, a := range notifier.attachments {
		for i := 21; i <= 25; i++ {
			if a.Text == fmt.Sprintf("entry %d", i) {
				t.Errorf("entry %d is beyond the ceiling but was sent", i)
			}
		}
	}
}

func TestProcessAlert_DedupAcrossCalls(t *testing.T) {
	p, notifier, _ := newTestProcessor()
	ctx := context.Background()

	first := p.ProcessAlert(ctx, "inv-1", envelope("entry one", "entry two"))
	if len(first.Records) != 2 {
		t.Fatalf("first call records = %d, want 2", len(first.Records))
	}

	second := p.ProcessAlert(ctx, "inv-2", envelope("entry two", "entry three"))
	if second.Deduplicated != 1 {
		t.Errorf("second call Deduplicated = %d, want 1", second.Deduplicated)
	}
	if len(notifier.attachments) != 1 || notifier.attachments[0].Text != "entry three" {
		t.Errorf("second call attachments = %+v, want only entry three", notifier.attachments)
	}
	if notifier.calls != 2 {
		t.Errorf("notifier calls = %d, want 2", notifier.calls)
	}
}

func TestProcessAlert_EmptyHitsStillNotifies(t *testing.T) {
	p, notifier, _ := newTestProcessor()

	result := p.ProcessAlert(context.Background(), "inv-1", envelope())

	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.calls)
	}
	if result.Attachments == nil || len(result.Attachments) != 0 {
		t.Errorf("Attachments = %#v, want empty", result.Attachments)
	}
}

func TestProcessAlert_NotifierErrorDoesNotFail(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("invalid_auth")}
	dispatcher := &inlineDispatcher{}
	p := NewProcessor(nil, dedup.NewFilter(nil), notifier, dispatcher)

	result := p.ProcessAlert(context.Background(), "inv-1", envelope("x"))
	if result == nil || len(result.Records) != 1 {
		t.Fatalf("ProcessAlert() = %+v", result)
	}
	if len(dispatcher.errs) != 1 || dispatcher.errs[0] == nil {
		t.Errorf("dispatcher should have observed the notifier error, got %v", dispatcher.errs)
	}
}

func TestProcessAlert_Publisher(t *testing.T) {
	pub := &mockPublisher{}
	p, _, dispatcher := newTestProcessor(WithPublisher(pub))
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.ProcessAlert(context.Background(), "inv-9", envelope(distinctHits(22)...))

	if diff := cmp.Diff([]string{"notify inv-9", "publish inv-9"}, dispatcher.operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}

	got := pub.published[0]
	if got.InvocationID != "inv-9" || got.SchemaVersion != events.SchemaVersion {
		t.Errorf("event identity = %q/%d", got.InvocationID, got.SchemaVersion)
	}
	if got.EntriesReceived != 22 || got.EntriesConsidered != 20 || got.EntriesBeyondLimit != 2 {
		t.Errorf("event counts = %d/%d/%d", got.EntriesReceived, got.EntriesConsidered, got.EntriesBeyondLimit)
	}
	if len(got.Records) != 20 || got.Records[0].Kind != "json" {
		t.Errorf("event records = %d, first kind %q", len(got.Records), got.Records[0].Kind)
	}
	if got.ProcessedAt != fixed.Unix() {
		t.Errorf("ProcessedAt = %d, want %d", got.ProcessedAt, fixed.Unix())
	}
}

func TestProcessAlert_WithMaxHits(t *testing.T) {
	p, notifier, _ := newTestProcessor(WithMaxHits(3))

	p.ProcessAlert(context.Background(), "inv-1", envelope(distinctHits(5)...))
	if len(notifier.attachments) != 3 {
		t.Errorf("attachments = %d, want 3", len(notifier.attachments))
	}

	q, _, _ := newTestProcessor(WithMaxHits(0))
	if q.maxHits != DefaultMaxHits {
		t.Errorf("WithMaxHits(0) maxHits = %d, want %d", q.maxHits, DefaultMaxHits)
	}
}

func TestProcessAlert_Metrics(t *testing.T) {
	mock := newMockCollector()
	p, _, _ := newTestProcessor(WithMetrics(mock))

	hits := append(distinctHits(21), "random garbage", "app.space.service.sub: Got error 'boom'")
	hits[1] = hits[0]
	p.ProcessAlert(context.Background(), "inv-1", envelope(hits...))

	if mock.receivedCount != 1 || mock.processedCount != 1 {
		t.Errorf("received/processed = %d/%d, want 1/1", mock.receivedCount, mock.processedCount)
	}
	want := map[string]uint64{
		CounterEntriesDeduplicated: 1,
		CounterEntriesBeyondLimit:  3,
		CounterRecordsJSON:         19,
	}
	if diff := cmp.Diff(want, mock.customCounts); diff != "" {
		t.Errorf("custom counters mismatch (-want +got):\n%s", diff)
	}
}

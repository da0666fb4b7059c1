package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
)

// burstProgressInterval is how often, in alerts, burst progress is logged.
const burstProgressInterval = 50

// Poster delivers one alert envelope to the webhook.
type Poster interface {
	Post(ctx context.Context, env *events.AlertEnvelope) (string, error)
}

// Recorder receives per-alert outcomes.
type Recorder interface {
	RecordProcessed(d time.Duration)
	RecordPublished()
	RecordError()
}

type noopRecorder struct{}

func (noopRecorder) RecordProcessed(time.Duration) {}
func (noopRecorder) RecordPublished()              {}
func (noopRecorder) RecordError()                  {}

// Runner posts generated alerts, either back to back or paced by an interval.
type Runner struct {
	gen      *Generator
	poster   Poster
	recorder Recorder
}

// NewRunner creates a runner. A nil recorder discards outcomes.
func NewRunner(gen *Generator, poster Poster, recorder Recorder) *Runner {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Runner{gen: gen, poster: poster, recorder: recorder}
}

// Run sends count alerts. A positive interval waits that long between alerts; zero sends
// them immediately. It stops at the first failed post.
func (r *Runner) Run(ctx context.Context, count int, interval time.Duration) error {
	slog.Info("Starting alert run", "total_alerts", count, "interval", interval)

	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	startTime := time.Now()
	for i := 0; i < count; i++ {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				slog.Warn("Alert run cancelled", "sent", i, "requested", count)
				return ctx.Err()
			case <-ticker.C:
			}
		}
		select {
		case <-ctx.Done():
			slog.Warn("Alert run cancelled", "sent", i, "requested", count)
			return ctx.Err()
		default:
		}

		alertStart := time.Now()
		env := r.gen.Generate()
		invocationID, err := r.poster.Post(ctx, env)
		if err != nil {
			r.recorder.RecordError()
			return fmt.Errorf("failed to post alert %d: %w", i+1, err)
		}
		r.recorder.RecordProcessed(time.Since(alertStart))
		r.recorder.RecordPublished()

		if i == 0 {
			slog.Info("Posted first alert (sample)",
				"invocation_id", invocationID,
				"alert_name", env.AlertName,
				"hits", len(env.RecentHits),
			)
		}
		if (i+1)%burstProgressInterval == 0 {
			slog.Info("Alert run progress", "sent", i+1, "total", count)
		}
	}

	elapsed := time.Since(startTime)
	slog.Info("Alert run completed",
		"total_sent", count,
		"duration_sec", fmt.Sprintf("%.2f", elapsed.Seconds()),
	)
	return nil
}

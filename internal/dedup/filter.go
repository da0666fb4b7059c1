package dedup

import (
	"context"
	"log/slog"
)

// Filter gates raw log entries on whether they have been seen before.
type Filter struct {
	cache Cache
}

// NewFilter creates a Filter backed by cache. A nil cache gets a fresh MemoryCache.
func NewFilter(cache Cache) *Filter {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Filter{cache: cache}
}

// ShouldProcess reports whether raw is new, recording its fingerprint if so.
// Cache failures are logged and the entry is let through.
func (f *Filter) ShouldProcess(ctx context.Context, raw string) bool {
	fp := Hash(raw)

	added, err := f.cache.Add(ctx, fp)
	if err != nil {
		slog.WarnContext(ctx, "Dedup cache unavailable, processing entry",
			"fingerprint", fp.String(),
			"error", err,
		)
		return true
	}

	if !added {
		slog.DebugContext(ctx, "Skipping repeated log entry", "fingerprint", fp.String())
	}
	return added
}

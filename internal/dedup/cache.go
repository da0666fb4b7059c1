// Package dedup decides whether a raw log entry has already been reported.
//
// Entries are identified by a Fingerprint and remembered in a Cache. The cache is an
// explicit dependency so its scope and lifetime are configuration: a process-local
// MemoryCache (optionally time-windowed or bounded) or a RedisCache shared between
// instances.
package dedup

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Cache remembers fingerprints. Add must perform the membership check and the insert
// atomically: it reports true only for the caller that first inserted fp.
type Cache interface {
	Add(ctx context.Context, fp Fingerprint) (bool, error)
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithTTL forgets fingerprints after d. Zero keeps them for the life of the cache.
func WithTTL(d time.Duration) MemoryOption {
	return func(c *MemoryCache) { c.ttl = d }
}

// WithMaxEntries bounds the cache, evicting the oldest fingerprint when full.
// Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) { c.maxEntries = n }
}

// withClock overrides time.Now in tests.
func withClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

type memoryEntry struct {
	fp     Fingerprint
	seenAt time.Time
}

// MemoryCache is a process-local Cache. By default it never forgets, so its contents
// last exactly as long as the process does.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[Fingerprint]*list.Element
	order      *list.List // oldest first
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[Fingerprint]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add implements Cache. It never returns an error.
func (c *MemoryCache) Add(_ context.Context, fp Fingerprint) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expireLocked(now)

	if _, exists := c.entries[fp]; exists {
		return false, nil
	}

	c.entries[fp] = c.order.PushBack(&memoryEntry{fp: fp, seenAt: now})
	if c.maxEntries > 0 {
		for c.order.Len() > c.maxEntries {
			c.removeLocked(c.order.Front())
		}
	}
	return true, nil
}

// Len returns the number of remembered fingerprints.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.now())
	return c.order.Len()
}

// Reset forgets every fingerprint.
func (c *MemoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]*list.Element)
	c.order.Init()
}

// expireLocked drops entries older than the TTL. Caller must hold c.mu.
func (c *MemoryCache) expireLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for e := c.order.Front(); e != nil; e = c.order.Front() {
		if now.Sub(e.Value.(*memoryEntry).seenAt) < c.ttl {
			return
		}
		c.removeLocked(e)
	}
}

func (c *MemoryCache) removeLocked(e *list.Element) {
	delete(c.entries, e.Value.(*memoryEntry).fp)
	c.order.Remove(e)
}

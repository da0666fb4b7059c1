package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces fingerprint keys in Redis.
const DefaultRedisKeyPrefix = "loggly-slack:dedup:"

// RedisCache is a Cache shared by every instance pointing at the same Redis. Each
// fingerprint is a key written with SET NX, which makes the check-and-insert atomic
// across processes.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache creates a RedisCache. A ttl of zero stores keys without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: DefaultRedisKeyPrefix,
		ttl:       ttl,
	}
}

// Key returns the Redis key for fp.
func (c *RedisCache) Key(fp Fingerprint) string {
	return c.keyPrefix + fp.String()
}

// Add implements Cache.
func (c *RedisCache) Add(ctx context.Context, fp Fingerprint) (bool, error) {
	added, err := c.client.SetNX(ctx, c.Key(fp), 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record fingerprint %s: %w", fp, err)
	}
	return added, nil
}

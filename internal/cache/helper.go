package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a key prefix over a Redis client. A nil client disables every
// operation without error.
type Cache struct {
	client *redis.Client
	prefix string
}

// New returns a Cache whose keys are namespaced under prefix.
func New(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// GetBytes returns the value at key. Returns (nil, false, nil) if not found.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetBytes stores value at key with ttl.
func (c *Cache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Aside tries Redis first and on a miss calls fetch, storing its result with
// ttl. Redis failures fall through to fetch and never fail the call.
func (c *Cache) Aside(ctx context.Context, key string, ttl time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	if b, found, err := c.GetBytes(ctx, key); err == nil && found {
		return b, nil
	}

	b, err := fetch()
	if err != nil {
		return nil, err
	}

	// Store into cache (best-effort)
	_ = c.SetBytes(ctx, key, b, ttl)
	return b, nil
}

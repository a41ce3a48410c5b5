package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys in a shared Redis.
const DefaultRedisPrefix = "slurp:session:"

// RedisStore persists entries in Redis so several processes share one session.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a RedisStore using prefix for every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.prefix+k, v, 0)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	return s.client.Del(ctx, prefixed...).Err()
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisStore) Close() error { return nil }

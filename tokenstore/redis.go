package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/resilience"
)

// RedisBackend keeps keys in Redis under the client's prefix.
type RedisBackend struct {
	client *redis.Client
}

// OpenRedis verifies the connection, retrying transient failures, and
// returns a backend that owns client.
func OpenRedis(ctx context.Context, client *redis.Client, retry resilience.RetryConfig) (*RedisBackend, error) {
	if err := resilience.RetryFunc(ctx, retry, func() error { return client.Ping(ctx) }); err != nil {
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0)
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...)
}

func (r *RedisBackend) Close() error { return r.client.Close() }

var _ Backend = (*RedisBackend)(nil)

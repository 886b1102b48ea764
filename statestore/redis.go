package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/authkit/redis"
)

// Redis is a Store that keeps JSON-serialized state in Redis. Expiry is
// delegated to the server, and Take uses GETDEL so that exactly one reader
// consumes a value.
type Redis[C any] struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis creates a Redis-backed Store. Keys are namespaced with keyPrefix
// on top of the client's own prefix.
func NewRedis[C any](client *redis.Client, keyPrefix string) *Redis[C] {
	return &Redis[C]{client: client, keyPrefix: keyPrefix}
}

func (s *Redis[C]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load deserializes JSON from Redis. Returns (nil, nil) if the key doesn't exist.
func (s *Redis[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.fullKey(key))
	return s.decode(key, raw, err)
}

// Save serializes to JSON and stores with TTL.
func (s *Redis[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("state store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.fullKey(key), string(data), ttl); err != nil {
		return fmt.Errorf("state store save %q: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (s *Redis[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("state store delete %q: %w", key, err)
	}
	return nil
}

// Take atomically reads and deletes the key. Corrupt content is removed and
// reported as an error.
func (s *Redis[C]) Take(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.GetDel(ctx, s.fullKey(key))
	return s.decode(key, raw, err)
}

func (s *Redis[C]) decode(key, raw string, err error) (*C, error) {
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state store load %q: %w", key, err)
	}
	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("state store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

var _ Store[any] = (*Redis[any])(nil)

// Package statestore holds short-lived, typed state keyed by an opaque string,
// such as the flow state of an OAuth redirect round-trip.
package statestore

import (
	"context"
	"time"
)

// Store provides typed ephemeral state persistence.
//
// The key is an opaque string; the consumer decides the key schema.
// TTL of 0 means no expiration.
type Store[C any] interface {
	// Load retrieves state. Returns (nil, nil) if the key doesn't exist.
	Load(ctx context.Context, key string) (*C, error)
	// Save persists state with optional TTL.
	Save(ctx context.Context, key string, val *C, ttl time.Duration) error
	// Delete removes state.
	Delete(ctx context.Context, key string) error
	// Take loads and removes state in one step. Of concurrent callers at most
	// one receives the value. Returns (nil, nil) if the key doesn't exist.
	Take(ctx context.Context, key string) (*C, error)
}

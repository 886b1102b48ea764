package statestore

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-lifetime Store. TTL expiry is enforced on read.
type Memory[C any] struct {
	mu    sync.Mutex
	items map[string]memEntry[C]
	now   func() time.Time
}

type memEntry[C any] struct {
	val       C
	expiresAt time.Time // zero means no expiration
}

// NewMemory creates an in-memory Store.
func NewMemory[C any]() *Memory[C] {
	return &Memory[C]{
		items: make(map[string]memEntry[C]),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for TTL checks.
func (s *Memory[C]) WithClock(now func() time.Time) *Memory[C] {
	s.now = now
	return s
}

// Load retrieves state. Returns (nil, nil) if the key doesn't exist or has expired.
func (s *Memory[C]) Load(_ context.Context, key string) (*C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key), nil
}

// Save stores a copy of val.
func (s *Memory[C]) Save(_ context.Context, key string, val *C, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memEntry[C]{val: *val}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = entry
	return nil
}

// Delete removes state.
func (s *Memory[C]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Take loads and removes state under a single lock.
func (s *Memory[C]) Take(_ context.Context, key string) (*C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val := s.lookup(key)
	delete(s.items, key)
	return val, nil
}

// Len returns the number of entries, including expired ones not yet read.
func (s *Memory[C]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// lookup must be called with mu held.
func (s *Memory[C]) lookup(key string) *C {
	entry, ok := s.items[key]
	if !ok {
		return nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.items, key)
		return nil
	}
	val := entry.val
	return &val
}

var _ Store[any] = (*Memory[any])(nil)

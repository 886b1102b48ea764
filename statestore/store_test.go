package statestore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/redis"
)

type testState struct {
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func newRedisStore(t *testing.T) (*Redis[testState], *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	client, err := redis.New(redis.Config{Addr: mini.Addr(), Prefix: "authkit"}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedis[testState](client, "flow"), mini
}

// stores runs the shared contract against every implementation.
func stores(t *testing.T) map[string]Store[testState] {
	r, _ := newRedisStore(t)
	return map[string]Store[testState]{
		"memory": NewMemory[testState](),
		"redis":  r,
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Save(ctx, "k1", &testState{Count: 5, Tags: []string{"a", "b"}}, 0); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Load(ctx, "k1")
			if err != nil || got == nil {
				t.Fatalf("Load = %+v, %v", got, err)
			}
			if got.Count != 5 || len(got.Tags) != 2 {
				t.Fatalf("unexpected state %+v", got)
			}
			if err := store.Delete(ctx, "k1"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if got, _ := store.Load(ctx, "k1"); got != nil {
				t.Fatalf("expected nil after delete, got %+v", got)
			}
		})
	}
}

func TestStore_TakeConsumesOnce(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = store.Save(ctx, "once", &testState{Count: 1}, time.Minute)

			first, err := store.Take(ctx, "once")
			if err != nil || first == nil || first.Count != 1 {
				t.Fatalf("first Take = %+v, %v", first, err)
			}
			second, err := store.Take(ctx, "once")
			if err != nil || second != nil {
				t.Fatalf("second Take = %+v, %v", second, err)
			}
		})
	}
}

func TestStore_TakeConcurrentSingleWinner(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = store.Save(ctx, "race", &testState{Count: 7}, 0)

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if v, _ := store.Take(ctx, "race"); v != nil {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()
			if wins.Load() != 1 {
				t.Fatalf("expected exactly one winner, got %d", wins.Load())
			}
		})
	}
}

func TestMemory_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewMemory[testState]().WithClock(func() time.Time { return now })
	ctx := context.Background()

	_ = store.Save(ctx, "k", &testState{Count: 1}, 10*time.Second)
	now = now.Add(9 * time.Second)
	if got, _ := store.Load(ctx, "k"); got == nil {
		t.Fatal("expected state before expiry")
	}
	now = now.Add(time.Second)
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Fatalf("expected expiry at ttl, got %+v", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry cleaned up, len=%d", store.Len())
	}
}

func TestMemory_SaveCopiesValue(t *testing.T) {
	store := NewMemory[testState]()
	ctx := context.Background()

	v := &testState{Count: 1}
	_ = store.Save(ctx, "k", v, 0)
	v.Count = 99
	got, _ := store.Load(ctx, "k")
	if got.Count != 1 {
		t.Fatalf("stored value changed through caller pointer: %+v", got)
	}
}

func TestRedis_TTL(t *testing.T) {
	store, mini := newRedisStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, "k", &testState{Count: 1}, 10*time.Minute)
	if ttl := mini.TTL("authkit:flow:k"); ttl != 10*time.Minute {
		t.Fatalf("expected 10m ttl, got %v", ttl)
	}
	mini.FastForward(11 * time.Minute)
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Fatalf("expected expired state, got %+v", got)
	}
}

func TestRedis_CorruptContent(t *testing.T) {
	store, mini := newRedisStore(t)
	ctx := context.Background()

	_ = mini.Set("authkit:flow:bad", "{not json")
	if _, err := store.Take(ctx, "bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if mini.Exists("authkit:flow:bad") {
		t.Fatal("Take must remove the key even when it is corrupt")
	}
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/authkit/logger"
)

// newTestClient creates a Client backed by miniredis for testing.
func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	client, err := New(Config{Addr: mini.Addr(), Prefix: "test"}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func TestClient_SetGetWithPrefix(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := client.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mini.Exists("test:k1") {
		t.Fatal("expected key to be stored with prefix")
	}
	got, err := client.Get(ctx, "k1")
	if err != nil || got != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestClient_GetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	if _, err := client.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetDelRemoves(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "once", "v", 0)
	got, err := client.GetDel(ctx, "once")
	if err != nil || got != "v" {
		t.Fatalf("GetDel = %q, %v", got, err)
	}
	if mini.Exists("test:once") {
		t.Fatal("expected key removed after GetDel")
	}
	if _, err := client.GetDel(ctx, "once"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second GetDel should miss, got %v", err)
	}
}

func TestClient_SetWithExpiration(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "ttl", "v", time.Minute)
	mini.FastForward(2 * time.Minute)
	if _, err := client.Get(ctx, "ttl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}
}

func TestClient_Del(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "a", "1", 0)
	_ = client.Set(ctx, "b", "2", 0)
	if err := client.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if mini.Exists("test:a") || mini.Exists("test:b") {
		t.Fatal("expected keys deleted")
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing addr")
	}
	if cfg.Prefix != DefaultPrefix || cfg.DialTimeout != 2*time.Second || cfg.WriteTimeout != 2*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	cfg.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("New should reject invalid config")
	}
}

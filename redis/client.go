package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/authkit/logger"
)

// ErrNotFound is returned by Get and GetDel for a missing key.
var ErrNotFound = errors.New("redis: key not found")

// Client is a go-redis client that prefixes every key.
type Client struct {
	rdb       *goredis.Client
	prefix    string
	log       *logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// New builds a Client. It does not connect; call Ping to check the server.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	log = logger.OrDefault(log, "redis")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	log.Debug("redis client created", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "prefix", cfg.Prefix))
	return &Client{rdb: rdb, prefix: cfg.Prefix, log: log}, nil
}

// Key returns key as stored in Redis.
func (c *Client) Key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return notFound(c.rdb.Get(ctx, c.Key(key)).Result())
}

// GetDel reads and removes key in one round trip, so only one caller can
// consume it.
func (c *Client) GetDel(ctx context.Context, key string) (string, error) {
	return notFound(c.rdb.GetDel(ctx, c.Key(key)).Result())
}

// Set stores value under key. A zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.Key(key), value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Key(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Close releases the connection pool. Later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.log.Debug("closing redis client")
		c.closeErr = c.rdb.Close()
	})
	return c.closeErr
}

func notFound(v string, err error) (string, error) {
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

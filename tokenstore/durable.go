package tokenstore

import (
	"context"
	"time"

	"github.com/kbukum/authkit/logger"
)

// Backend is a durable string key/value area.
type Backend interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every listed key in one operation.
	Delete(ctx context.Context, keys ...string) error
	// Name identifies the backend in logs.
	Name() string
	Close() error
}

// Durable is a Storage that writes through to a Backend. A nil Backend makes
// every operation a silent no-op.
type Durable struct {
	backend         Backend
	tokenKey        string
	refreshTokenKey string
	timeout         time.Duration
	log             *logger.Logger
}

// NewDurable creates a Durable storage. Empty keys fall back to the defaults.
func NewDurable(backend Backend, tokenKey, refreshTokenKey string, log *logger.Logger) *Durable {
	if tokenKey == "" {
		tokenKey = DefaultTokenKey
	}
	if refreshTokenKey == "" {
		refreshTokenKey = DefaultRefreshTokenKey
	}
	return &Durable{
		backend:         backend,
		tokenKey:        tokenKey,
		refreshTokenKey: refreshTokenKey,
		timeout:         defaultTimeout,
		log:             logger.OrDefault(log, "tokenstore"),
	}
}

// Backend returns the underlying backend, or nil.
func (d *Durable) Backend() Backend { return d.backend }

// Close releases the backend.
func (d *Durable) Close() error {
	if d.backend == nil {
		return nil
	}
	return d.backend.Close()
}

func (d *Durable) Token() (string, bool)        { return d.get(d.tokenKey) }
func (d *Durable) SetToken(token string)        { d.set(d.tokenKey, token) }
func (d *Durable) RemoveToken()                 { d.remove(d.tokenKey) }
func (d *Durable) RefreshToken() (string, bool) { return d.get(d.refreshTokenKey) }
func (d *Durable) SetRefreshToken(token string) { d.set(d.refreshTokenKey, token) }
func (d *Durable) RemoveRefreshToken()          { d.remove(d.refreshTokenKey) }
func (d *Durable) Clear()                       { d.remove(d.tokenKey, d.refreshTokenKey) }

func (d *Durable) get(key string) (string, bool) {
	if d.backend == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	v, ok, err := d.backend.Get(ctx, key)
	if err != nil {
		d.warn("read", key, err)
		return "", false
	}
	return v, ok && v != ""
}

func (d *Durable) set(key, value string) {
	if d.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.backend.Set(ctx, key, value); err != nil {
		d.warn("write", key, err)
	}
}

func (d *Durable) remove(keys ...string) {
	if d.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.backend.Delete(ctx, keys...); err != nil {
		d.warn("delete", keys[0], err)
	}
}

func (d *Durable) warn(op, key string, err error) {
	d.log.Warn("token storage "+op+" failed", logger.Fields(
		logger.FieldBackend, d.backend.Name(),
		logger.FieldOperation, op,
		"key", key,
		logger.FieldError, err.Error(),
	))
}

var _ Storage = (*Durable)(nil)

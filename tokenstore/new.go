package tokenstore

import (
	"context"

	"github.com/kbukum/authkit/encryption"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/resilience"
)

// New builds the Storage described by cfg. The durable backend is opened
// once here; if that fails the failure is logged and an in-memory Storage is
// returned instead.
func New(ctx context.Context, cfg Config, log *logger.Logger) Storage {
	cfg.ApplyDefaults()
	log = logger.OrDefault(log, "tokenstore")

	if err := cfg.Validate(); err != nil {
		log.Warn("invalid token storage config, using memory", logger.ErrorFields("configure", err))
		return NewMemory()
	}
	if cfg.Backend == BackendMemory {
		return NewMemory()
	}

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		err = apperrors.StorageUnavailable(cfg.Backend, err)
		log.Warn("durable token storage unavailable, using memory", logger.Fields(
			logger.FieldBackend, cfg.Backend,
			logger.FieldError, err.Error(),
		))
		return NewMemory()
	}

	log.Debug("token storage opened", logger.Fields(logger.FieldBackend, backend.Name()))
	d := NewDurable(backend, cfg.TokenKey, cfg.RefreshTokenKey, log)
	d.timeout = cfg.Timeout
	return d
}

func openBackend(ctx context.Context, cfg Config, log *logger.Logger) (Backend, error) {
	switch cfg.Backend {
	case BackendRedis:
		client, err := redis.New(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Redis.MaxRetries
		b, err := OpenRedis(ctx, client, retry)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return b, nil
	case BackendSQLite:
		path, err := cfg.ResolvePath()
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path)
	default:
		path, err := cfg.ResolvePath()
		if err != nil {
			return nil, err
		}
		var enc encryption.Encryptor
		if cfg.EncryptionKey != "" {
			aead, err := encryption.New(cfg.EncryptionKey, encryption.WithAlgorithm(encryption.Algorithm(cfg.Algorithm)))
			if err != nil {
				return nil, err
			}
			enc = aead
		}
		return OpenFile(path, enc)
	}
}

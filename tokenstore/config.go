package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/validation"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const defaultTimeout = 2 * time.Second

// Config selects and configures the token storage.
type Config struct {
	// Backend is one of memory, file, sqlite or redis. Defaults to file.
	Backend string `mapstructure:"backend" validate:"oneof=memory file sqlite redis"`

	// TokenKey and RefreshTokenKey name the two slots.
	TokenKey        string `mapstructure:"token_key" validate:"required"`
	RefreshTokenKey string `mapstructure:"refresh_token_key" validate:"required"`

	// Path is the file or SQLite database location. Defaults to a file under
	// the user config directory.
	Path string `mapstructure:"path"`

	// EncryptionKey seals values written by the file backend. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// Algorithm is aes-256-gcm (default) or chacha20-poly1305.
	Algorithm string `mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`

	// Redis configures the redis backend.
	Redis redis.Config `mapstructure:"redis"`

	// Timeout bounds each backend operation.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.TokenKey == "" {
		c.TokenKey = DefaultTokenKey
	}
	if c.RefreshTokenKey == "" {
		c.RefreshTokenKey = DefaultRefreshTokenKey
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Backend == BackendRedis {
		c.Redis.ApplyDefaults()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Backend == BackendRedis {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// ResolvePath returns Path, or the default location for the backend under
// the user config directory.
func (c *Config) ResolvePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	name := "tokens.json"
	if c.Backend == BackendSQLite {
		name = "tokens.db"
	}
	return filepath.Join(dir, "authkit", name), nil
}

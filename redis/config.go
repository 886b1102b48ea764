package redis

import (
	"errors"
	"time"
)

// DefaultPrefix namespaces keys when Config.Prefix is empty.
const DefaultPrefix = "authkit"

// Config is a Redis connection. Timeouts accept Go duration strings such as
// "500ms" in config.yml.
type Config struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix is joined to every key with a colon.
	Prefix string `mapstructure:"prefix"`

	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults sizes the client for a CLI: a small pool and short timeouts.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	for _, d := range []*time.Duration{&c.DialTimeout, &c.ReadTimeout, &c.WriteTimeout} {
		if *d <= 0 {
			*d = 2 * time.Second
		}
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("redis addr is required")
	}
	if c.PoolSize <= 0 {
		return errors.New("pool_size must be > 0")
	}
	return nil
}

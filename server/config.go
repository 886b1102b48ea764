package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultHost keeps listeners on the loopback interface.
const DefaultHost = "127.0.0.1"

// Config holds HTTP server configuration. Port 0 binds a free port.
type Config struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// Mode is the gin mode (debug, release, test). Empty derives it from
	// the server's logger: debug only when that logger writes debug entries.
	Mode string `yaml:"mode" mapstructure:"mode"`
	// ShutdownTimeout bounds graceful shutdown in Stop.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	defaults := []struct {
		d   *time.Duration
		def time.Duration
	}{
		{&c.ReadTimeout, 15 * time.Second},
		{&c.WriteTimeout, 15 * time.Second},
		{&c.IdleTimeout, time.Minute},
		{&c.ShutdownTimeout, 5 * time.Second},
	}
	for _, f := range defaults {
		if *f.d == 0 {
			*f.d = f.def
		}
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	switch c.Mode {
	case "", gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("server.mode must be debug, release or test (got: %q)", c.Mode)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %s)", name, d)
		}
	}
	return nil
}

// Addr returns host:port, bracketing IPv6 hosts.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

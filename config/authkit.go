package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/tokenstore"
	"github.com/kbukum/authkit/validation"
)

// ServiceName names the config directory and the default service tag.
const ServiceName = "authkit"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AUTHKIT"

// Flow-state backends.
const (
	FlowStateMemory = "memory"
	FlowStateRedis  = "redis"
)

// FlowStateConfig selects where pending OAuth flow state lives.
type FlowStateConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Redis   redis.Config  `yaml:"redis" mapstructure:"redis"`
}

// Config is the full authkit configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Session   session.Config       `yaml:"session" mapstructure:"session"`
	Storage   tokenstore.Config    `yaml:"storage" mapstructure:"storage"`
	FlowState FlowStateConfig      `yaml:"flow_state" mapstructure:"flow_state"`
	Callback  server.Config        `yaml:"callback" mapstructure:"callback"`
	HTTP      httpclient.Config    `yaml:"http" mapstructure:"http"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// Defaults are viper defaults for keys whose zero value is a valid choice.
func Defaults() map[string]any {
	return map[string]any{
		"session.auto_refresh": true,
	}
}

// Options returns the loader options authkit processes use.
func Options(extra ...LoaderOption) []LoaderOption {
	return append([]LoaderOption{WithEnvPrefix(EnvPrefix), WithDefaults(Defaults())}, extra...)
}

// ApplyDefaults fills in zero-value fields across all sections.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Storage.ApplyDefaults()

	if c.FlowState.Backend == "" {
		c.FlowState.Backend = FlowStateMemory
	}
	if c.FlowState.Backend == FlowStateRedis {
		c.FlowState.Redis.ApplyDefaults()
	}

	c.Callback.ApplyDefaults()

	if c.HTTP.BaseURL == "" {
		c.HTTP.BaseURL = c.Session.APIURL
	}
	c.HTTP.ApplyDefaults()

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if u, err := url.Parse(c.Session.APIURL); err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("config.session.api_url must be an absolute URL (got: %q)", c.Session.APIURL)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("config.storage: %w", err)
	}
	if err := validation.Validate(c.FlowState); err != nil {
		return fmt.Errorf("config.flow_state: %w", err)
	}
	if c.FlowState.Backend == FlowStateRedis {
		if err := c.FlowState.Redis.Validate(); err != nil {
			return fmt.Errorf("config.flow_state.redis: %w", err)
		}
	}
	if err := c.Callback.Validate(); err != nil {
		return fmt.Errorf("config.callback: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("config.http: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

package httpclient

import (
	"errors"
	"time"

	"github.com/kbukum/authkit/resilience"
)

// RequestIDHeader is sent on every request for correlation with server logs.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 30 * time.Second

// Config configures a Client. Requests go to paths under BaseURL. The cookie
// jar is on unless DisableCookies is set, since the auth server may keep a
// session cookie alongside the bearer token.
type Config struct {
	BaseURL        string            `yaml:"base_url" mapstructure:"base_url"`
	Timeout        time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Headers        map[string]string `yaml:"headers" mapstructure:"headers"`
	DisableCookies bool              `yaml:"disable_cookies" mapstructure:"disable_cookies"`

	// Retry is applied only to calls that never got a response. Nil means
	// one attempt.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("httpclient: timeout must be positive")
	}
	return nil
}

// DefaultRetryConfig retries connection failures only. Timeouts and HTTP
// error statuses are returned to the caller at once.
func DefaultRetryConfig() *resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	rc.RetryIf = IsConnection
	return &rc
}

package tokenstore

import (
	"time"

	"github.com/kbukum/authkit/resilience"
)

func fastRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	return cfg
}

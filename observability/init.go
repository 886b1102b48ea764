package observability

import (
	"context"
	"errors"
	"fmt"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Init installs OTLP tracer and meter providers when cfg has an endpoint.
// The returned ShutdownFunc is never nil.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return noop, err
	}
	if !cfg.Enabled() {
		return noop, nil
	}

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return noop, fmt.Errorf("init tracer: %w", err)
	}
	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noop, fmt.Errorf("init meter: %w", err)
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

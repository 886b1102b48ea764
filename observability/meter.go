package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/authkit/logger"
)

// Metric names.
const (
	MetricTransitions        = "authkit.session.transitions"
	MetricFailures           = "authkit.session.failures"
	MetricTransitionDuration = "authkit.session.transition.duration"
)

// InitMeter installs a global meter provider that pushes to cfg.Endpoint
// every cfg.Interval. The caller shuts it down.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Debug("metrics enabled", logger.Fields("endpoint", cfg.Endpoint, "interval", cfg.Interval.String()))
	return mp, nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter { return otel.Meter(name) }

// Metrics records session controller activity. A nil *Metrics records
// nothing.
type Metrics struct {
	transitions metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics registers the session instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.transitions, err = meter.Int64Counter(MetricTransitions,
		metric.WithDescription("Session transitions by kind and outcome")); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricTransitions, err)
	}
	if m.failures, err = meter.Int64Counter(MetricFailures,
		metric.WithDescription("Failed session transitions by kind and reason")); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricFailures, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricTransitionDuration,
		metric.WithDescription("Session transition latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricTransitionDuration, err)
	}
	return &m, nil
}

// RecordTransition counts a finished transition and records its latency.
func (m *Metrics) RecordTransition(ctx context.Context, transition, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTransition, transition),
		attribute.String(AttrOutcome, outcome),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrTransition, transition),
	))
}

// RecordFailure counts a failed transition by reason.
func (m *Metrics) RecordFailure(ctx context.Context, transition, reason string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTransition, transition),
		attribute.String("reason", reason),
	))
}

// Package observability wires OpenTelemetry tracing and metrics for authkit.
//
// Telemetry is opt-in. With no endpoint configured Init installs nothing
// and every span and instrument stays a no-op:
//
//	shutdown, err := observability.Init(ctx, cfg.Telemetry)
//	defer shutdown(ctx)
//
// Session transitions are recorded through Metrics:
//
//	m, _ := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	m.RecordTransition(ctx, "login", "success", time.Since(start))
package observability

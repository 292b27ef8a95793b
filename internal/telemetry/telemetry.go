// Package telemetry wires structured logging and OpenTelemetry metrics
// for the driver loop. Grounded on itsneelabh-gomind's telemetry package
// (meter setup, lazily-cached instruments) but narrowed to metrics only:
// this is a single-process kernel with no downstream collector to trace
// against, so the tracing/OTLP-exporter half of that package's provider
// is deliberately not carried over (see DESIGN.md).
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewLogger builds the process-wide slog.Logger, text-handled to stderr
// so it never collides with the console REPL's stdout prompt.
func NewLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// LevelFromEnv reads NEXUSCORTEX_LOG_LEVEL ("debug", "warn", "error"),
// defaulting to info on an unset or unrecognized value.
func LevelFromEnv() slog.Level {
	switch os.Getenv("NEXUSCORTEX_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Metrics holds the three instruments spec.md's ambient stack calls for:
// a tick counter, a planner-dispatch latency histogram, and a
// crystallizer-decision counter broken down by outcome.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	mu                       sync.Mutex
	tickCounter              metric.Int64Counter
	plannerDispatchLatencyMs metric.Float64Histogram
	crystallizerDecisions    metric.Int64Counter
}

// New constructs a Metrics instance with an in-process meter provider (no
// OTLP exporter attached — instruments accumulate but nothing ships off-
// box, matching the metrics-only scope decision).
func New(serviceName string) (*Metrics, error) {
	provider := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	tickCounter, err := meter.Int64Counter("nexuscortex.tick.count",
		metric.WithDescription("number of reactor ticks advanced"))
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	dispatchLatency, err := meter.Float64Histogram("nexuscortex.planner.dispatch_latency_ms",
		metric.WithDescription("planner dispatch round-trip latency in milliseconds"))
	if err != nil {
		return nil, fmt.Errorf("creating planner dispatch latency histogram: %w", err)
	}
	decisions, err := meter.Int64Counter("nexuscortex.crystallizer.decisions",
		metric.WithDescription("crystallizer gate decisions by kind"))
	if err != nil {
		return nil, fmt.Errorf("creating crystallizer decision counter: %w", err)
	}

	return &Metrics{
		provider:                 provider,
		meter:                    meter,
		tickCounter:              tickCounter,
		plannerDispatchLatencyMs: dispatchLatency,
		crystallizerDecisions:    decisions,
	}, nil
}

// RecordTick increments the tick counter by one.
func (m *Metrics) RecordTick(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickCounter.Add(ctx, 1)
}

// RecordPlannerDispatchLatency records one completed dispatch's latency.
func (m *Metrics) RecordPlannerDispatchLatency(ctx context.Context, ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plannerDispatchLatencyMs.Record(ctx, ms)
}

// RecordCrystallizerDecision increments the decision counter for kind
// ("deny", "delay", "allow_partial", "allow_hard").
func (m *Metrics) RecordCrystallizerDecision(ctx context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crystallizerDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Shutdown flushes and releases the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

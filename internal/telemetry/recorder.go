package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome describes one finished synthesis call.
type Outcome struct {
	Provider string
	Surface  string // "http" or "grpc"
	Duration time.Duration
	Bytes    int

	// ErrorKind is empty on success.
	ErrorKind string
}

// Recorder pairs the adapter logger with its metric instruments.
type Recorder struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewRecorder constructs a telemetry recorder. A nil metrics records nothing.
func NewRecorder(logger *slog.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	return &Recorder{logger: logger, metrics: metrics}
}

// Logger returns the underlying slog.Logger for direct use.
func (r *Recorder) Logger() *slog.Logger {
	return r.logger
}

// Metrics returns the instrument set.
func (r *Recorder) Metrics() *Metrics {
	return r.metrics
}

// SynthesisStarted marks a call in flight. The returned func must be called
// exactly once when the call finishes.
func (r *Recorder) SynthesisStarted(ctx context.Context, provider, surface string) func() {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("surface", surface),
	)
	r.metrics.InFlight.Add(ctx, 1, attrs)
	return func() { r.metrics.InFlight.Add(ctx, -1, attrs) }
}

// RecordSynthesis records counters and histograms for o.
func (r *Recorder) RecordSynthesis(ctx context.Context, o Outcome) {
	status := "ok"
	if o.ErrorKind != "" {
		status = "error"
	}

	r.metrics.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", o.Provider),
		attribute.String("status", status),
	))
	r.metrics.SynthesisDuration.Record(ctx, o.Duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", o.Provider),
		attribute.String("surface", o.Surface),
		attribute.String("status", status),
	))

	if o.ErrorKind != "" {
		r.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", o.Provider),
			attribute.String("kind", o.ErrorKind),
		))
		return
	}
	r.metrics.SynthesisBytes.Record(ctx, int64(o.Bytes), metric.WithAttributes(
		attribute.String("provider", o.Provider),
	))
}

// Package telemetry centralises logs, metrics and traces for the adapter.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed in
// Prometheus format by the handler returned from [InitProvider]. Tests build
// [Metrics] from their own [metric.MeterProvider] to avoid global state.
package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// instrumentationName is the scope name used for all adapter metrics and spans.
const instrumentationName = "github.com/nupi-ai/plugin-tts-remote-gtts"

// Metrics holds the OpenTelemetry instruments of the adapter. The underlying
// OTel types are safe for concurrent use.
type Metrics struct {
	// SynthesisDuration tracks end-to-end synthesis latency. Attributes:
	// provider, surface, status.
	SynthesisDuration metric.Float64Histogram

	// SynthesisBytes tracks the size of successful audio payloads.
	SynthesisBytes metric.Int64Histogram

	// ProviderRequests counts synthesis calls by provider and status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed synthesis calls by provider and error kind.
	ProviderErrors metric.Int64Counter

	// InFlight tracks synthesis calls currently running.
	InFlight metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds sized for remote TTS
// round-trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

var sizeBuckets = []float64{
	1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(instrumentationName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("tts.synthesis.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisBytes, err = m.Int64Histogram("tts.synthesis.bytes",
		metric.WithDescription("Size of synthesized audio payloads."),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(sizeBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("tts.provider.requests",
		metric.WithDescription("Total provider synthesis calls by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("tts.provider.errors",
		metric.WithDescription("Total failed synthesis calls by provider and error kind."),
	); err != nil {
		return nil, err
	}
	if met.InFlight, err = m.Int64UpDownCounter("tts.synthesis.in_flight",
		metric.WithDescription("Synthesis calls currently running."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("tts.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// NoopMetrics returns instruments that record nothing.
func NoopMetrics() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("telemetry: noop metrics: " + err.Error())
	}
	return met
}

// Package observe provides application-wide observability primitives for
// cantariserver: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all cantariserver
// metrics.
const meterName = "github.com/utavox/cantariserver"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// PhraseSynthDuration tracks the time spent synthesizing one accent
	// phrase end to end (encode + timing + f0 + native synth).
	PhraseSynthDuration metric.Float64Histogram

	// NativeSynthDuration tracks latency of a single blocking call into the
	// native WORLD DSP library.
	NativeSynthDuration metric.Float64Histogram

	// AnalyzeDuration tracks latency of calls to the external TextAnalyzer
	// collaborator.
	AnalyzeDuration metric.Float64Histogram

	// --- Counters ---

	// CacheLookups counts PhraseCache lookups. Use with attribute:
	//   attribute.String("result", "hit"|"miss")
	CacheLookups metric.Int64Counter

	// MorasSkipped counts morae skipped because no matching oto entry was
	// found. Use with attribute: attribute.String("voicebank", ...)
	MorasSkipped metric.Int64Counter

	// SynthesisRequests counts /synthesis requests by outcome. Use with
	// attribute: attribute.String("status", "ok"|"error")
	SynthesisRequests metric.Int64Counter

	// --- Error counters ---

	// NativeSynthErrors counts failed native synth calls.
	NativeSynthErrors metric.Int64Counter

	// --- Gauges ---

	// LoadedVoicebanks tracks the number of currently loaded voicebanks.
	LoadedVoicebanks metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for phrase-synthesis latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.PhraseSynthDuration, err = m.Float64Histogram("cantari.phrase_synth.duration",
		metric.WithDescription("Latency of synthesizing one accent phrase."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.NativeSynthDuration, err = m.Float64Histogram("cantari.native_synth.duration",
		metric.WithDescription("Latency of a single native WORLD synth call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalyzeDuration, err = m.Float64Histogram("cantari.analyze.duration",
		metric.WithDescription("Latency of calls to the external text analyzer."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.CacheLookups, err = m.Int64Counter("cantari.cache.lookups",
		metric.WithDescription("Total phrase cache lookups by result (hit/miss)."),
	); err != nil {
		return nil, err
	}
	if met.MorasSkipped, err = m.Int64Counter("cantari.moras.skipped",
		metric.WithDescription("Total morae skipped due to a missing oto entry, by voicebank."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("cantari.synthesis.requests",
		metric.WithDescription("Total /synthesis requests by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.NativeSynthErrors, err = m.Int64Counter("cantari.native_synth.errors",
		metric.WithDescription("Total failed native synth calls."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.LoadedVoicebanks, err = m.Int64UpDownCounter("cantari.loaded_voicebanks",
		metric.WithDescription("Number of currently loaded voicebanks."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("cantari.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCacheLookup is a convenience method that records a phrase cache hit
// or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordMoraSkipped is a convenience method that records a skipped mora for
// a voicebank.
func (m *Metrics) RecordMoraSkipped(ctx context.Context, voicebank string) {
	m.MorasSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("voicebank", voicebank)))
}

// RecordSynthesisRequest is a convenience method that records a /synthesis
// request outcome.
func (m *Metrics) RecordSynthesisRequest(ctx context.Context, status string) {
	m.SynthesisRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordNativeSynthError is a convenience method that records a failed
// native synth call.
func (m *Metrics) RecordNativeSynthError(ctx context.Context) {
	m.NativeSynthErrors.Add(ctx, 1)
}

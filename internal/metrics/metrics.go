// Package metrics exports pipeline, cache and source events as Prometheus
// metrics.
//
// A [Metrics] value implements the observability hook interfaces. Install
// it with [Metrics.Install] and serve [Metrics.Handler] on /metrics. Each
// Metrics owns its registry, so tests and several servers in one process do
// not collide on the default registerer.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/definekit/pkg/observability"
)

const namespace = "definekit"

// Metrics collects definekit metrics.
type Metrics struct {
	registry *prometheus.Registry

	parses            *prometheus.CounterVec
	parseDuration     *prometheus.HistogramVec
	diagnostics       *prometheus.CounterVec
	normalizeDuration prometheus.Histogram
	renders           *prometheus.CounterVec
	renderBytes       *prometheus.HistogramVec
	cacheOps          *prometheus.CounterVec
	cacheBytes        *prometheus.CounterVec
	fetches           *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.SourceHooks   = (*Metrics)(nil)
)

// New creates a Metrics with its own registry. Go runtime and process
// collectors are registered as well.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Inputs bound or imported, by format and outcome.",
		}, []string{"format", "outcome"}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent binding or importing an input.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported, by stage.",
		}, []string{"stage"}),
		normalizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "normalize_duration_seconds",
			Help:      "Time spent in normalization passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Outputs serialized, by format and outcome.",
		}, []string{"format", "outcome"}),
		renderBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_bytes",
			Help:      "Size of serialized outputs.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache, by key type.",
		}, []string{"key_type"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Inputs loaded, by scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent loading inputs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scheme"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.parses, m.parseDuration, m.diagnostics, m.normalizeDuration,
		m.renders, m.renderBytes, m.cacheOps, m.cacheBytes,
		m.fetches, m.fetchDuration, m.requests, m.requestDuration,
	)
	return m
}

// Install makes m the process-wide receiver of pipeline, cache and source
// events.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSourceHooks(m)
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request. Route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(route string, code int, duration time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// OnParseStart implements observability.PipelineHooks.
func (m *Metrics) OnParseStart(context.Context, string) {}

// OnParseComplete implements observability.PipelineHooks.
func (m *Metrics) OnParseComplete(_ context.Context, format string, diagnostics int, duration time.Duration, err error) {
	m.parses.WithLabelValues(format, outcome(err)).Inc()
	m.parseDuration.WithLabelValues(format).Observe(duration.Seconds())
	m.diagnostics.WithLabelValues("parse").Add(float64(diagnostics))
}

// OnNormalizeComplete implements observability.PipelineHooks.
func (m *Metrics) OnNormalizeComplete(_ context.Context, diagnostics int, duration time.Duration, _ error) {
	m.normalizeDuration.Observe(duration.Seconds())
	m.diagnostics.WithLabelValues("normalize").Add(float64(diagnostics))
}

// OnRenderComplete implements observability.PipelineHooks.
func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, _ time.Duration, err error) {
	m.renders.WithLabelValues(format, outcome(err)).Inc()
	if err == nil {
		m.renderBytes.WithLabelValues(format).Observe(float64(size))
	}
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnFetch implements observability.SourceHooks.
func (m *Metrics) OnFetch(_ context.Context, scheme string, _ int, duration time.Duration, err error) {
	m.fetches.WithLabelValues(scheme, outcome(err)).Inc()
	m.fetchDuration.WithLabelValues(scheme).Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

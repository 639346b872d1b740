// Package metrics defines the Prometheus collectors used by the index,
// query and evaluation layers and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes recorded in QueriesTotal.
const (
	OutcomeOK         = "ok"
	OutcomeZeroResult = "zero_result"
	OutcomeParseError = "parse_error"
	OutcomeEvalError  = "eval_error"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRateLimitedTotal prometheus.Counter
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryResultSize      prometheus.Histogram
	IndexDocuments       prometheus.Gauge
	IndexTerms           prometheus.Gauge
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	EvalMeanPrecision    prometheus.Gauge
	EvalMeanRecall       prometheus.Gauge
}

// New creates all collectors and registers them with reg. A nil reg means
// the Prometheus default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		HTTPRateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boolean_queries_total",
				Help: "Boolean queries by outcome (ok, zero_result, parse_error, eval_error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boolean_query_latency_seconds",
				Help:    "Query parse and evaluation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"cache_status"},
		),
		QueryResultSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boolean_query_result_size",
				Help:    "Number of documents matched per query.",
				Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents in the frozen index universe.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Distinct terms in the frozen index.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		EvalMeanPrecision: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluation_mean_precision",
				Help: "Mean precision of the last evaluation run.",
			},
		),
		EvalMeanRecall: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluation_mean_recall",
				Help: "Mean recall of the last evaluation run.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.HTTPRateLimitedTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultSize,
		m.IndexDocuments,
		m.IndexTerms,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EvalMeanPrecision,
		m.EvalMeanRecall,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for the default
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a scrape handler for a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Package metrics defines the Prometheus collectors of the n-gram viewer and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     prometheus.Counter
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         prometheus.Histogram
	TermsTotal           *prometheus.CounterVec
	SeriesCount          prometheus.Histogram
	StoreLookupsTotal    *prometheus.CounterVec
	StoreLookupLatency   *prometheus.HistogramVec
	WildcardMatches      prometheus.Histogram
	TotalsSeries         prometheus.Gauge
	StoreCircuitState    prometheus.Gauge
	AnalyticsEventsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route and status.",
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
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_queries_total",
				Help: "N-gram queries by outcome (ok, empty, error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ngram_query_latency_seconds",
				Help:    "End to end n-gram query latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		TermsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_terms_total",
				Help: "Interpreted query terms by kind.",
			},
			[]string{"kind"},
		),
		SeriesCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ngram_series_count",
				Help:    "Number of series returned per query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		StoreLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_store_lookups_total",
				Help: "Frequency store lookups by corpus and access path.",
			},
			[]string{"corpus", "path"},
		),
		StoreLookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ngram_store_lookup_latency_seconds",
				Help:    "Frequency store lookup latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"op"},
		),
		WildcardMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ngram_wildcard_matches",
				Help:    "Concrete n-grams resolved per wildcard term.",
				Buckets: []float64{0, 1, 2, 5, 10},
			},
		),
		TotalsSeries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ngram_totals_series",
				Help: "Number of corpus and language series in the loaded yearly totals.",
			},
		),
		StoreCircuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ngram_store_circuit_state",
				Help: "Frequency store circuit breaker state (0 closed, 1 open, 2 half-open).",
			},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngram_analytics_events_total",
				Help: "Query analytics events by status (queued, dropped, published, failed).",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RateLimitedTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.TermsTotal,
		m.SeriesCount,
		m.StoreLookupsTotal,
		m.StoreLookupLatency,
		m.WildcardMatches,
		m.TotalsSeries,
		m.StoreCircuitState,
		m.AnalyticsEventsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a scrape handler for a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

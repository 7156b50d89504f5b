package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream provider call rate per endpoint (resolve, conditions, forecast).
	ProviderCallsTotal *prometheus.CounterVec

	// Upstream provider latency per endpoint. Watch for: p95 > 2s (upstream degradation).
	ProviderCallDuration *prometheus.HistogramVec

	// Weather lookups served, by freshness class and source (cache or upstream).
	// Hit rate per class = source=cache / total.
	WeatherServedTotal *prometheus.CounterVec

	// Cache reads by outcome (hit, miss) and entry kind (weather, favorites).
	CacheReadsTotal *prometheus.CounterVec

	// Key-value store failures by operation. These degrade to misses or no-ops,
	// never to request failures; a nonzero rate means the store is unhealthy.
	CacheErrorsTotal *prometheus.CounterVec

	// Favorites mutations by operation (add, remove) and outcome (ok, rejected).
	FavoritesOpsTotal *prometheus.CounterVec

	// New session tokens issued. Roughly tracks first-time visitors.
	SessionsIssuedTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of upstream provider API calls",
		},
		[]string{"endpoint", "status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Upstream provider latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
	WeatherServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherServedTotal",
			Help: "Weather lookups served, by freshness class and source",
		},
		[]string{"class", "source"},
	)
	CacheReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheReadsTotal",
			Help: "Cache reads by outcome (hit, miss) and entry kind",
		},
		[]string{"kind", "outcome"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Key-value store failures by operation (get, set, delete)",
		},
		[]string{"op"},
	)
	FavoritesOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favoritesOpsTotal",
			Help: "Favorites mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	SessionsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionsIssuedTotal",
			Help: "Total number of new session tokens issued",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ProviderCallsTotal, ProviderCallDuration,
		WeatherServedTotal, CacheReadsTotal, CacheErrorsTotal,
		FavoritesOpsTotal, SessionsIssuedTotal, RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

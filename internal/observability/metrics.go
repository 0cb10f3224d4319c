package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// geocoding and matrix components.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Matrix metrics. MatrixRequests counts attempts (including cache
	// reuse); MatrixRequestsSaved counts attempts served from the cached
	// response without a network call.
	MatrixRequests      prometheus.Counter
	MatrixRequestsSaved prometheus.Counter
	MatrixAPIRequests   *prometheus.CounterVec // labels: outcome={success,error}
	MatrixAPIDuration   prometheus.Histogram
	MatrixDegraded      prometheus.Counter

	ServiceReady prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routematrix",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		MatrixRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "matrix_requests_total",
			Help:      "Matrix lookups attempted, including ones served from cache.",
		}),
		MatrixRequestsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "matrix_requests_saved_total",
			Help:      "Matrix lookups answered from the cached response.",
		}),
		MatrixAPIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "matrix_api_requests_total",
			Help:      "Matrix API requests by outcome.",
		}, []string{"outcome"}),
		MatrixAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routematrix",
			Name:      "matrix_api_duration_seconds",
			Help:      "Matrix API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		MatrixDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "routematrix",
			Name:      "matrix_degraded_total",
			Help:      "Matrix responses with a non-success provider status.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "routematrix",
			Name:      "service_ready",
			Help:      "1 once the service has completed an operation, 0 before.",
		}),
	}

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.MatrixRequests,
		m.MatrixRequestsSaved,
		m.MatrixAPIRequests,
		m.MatrixAPIDuration,
		m.MatrixDegraded,
		m.ServiceReady,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "routematrix", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "routematrix", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "routematrix", Name: "geocode_api_duration_seconds"}),
		MatrixRequests:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "routematrix", Name: "matrix_requests_total"}),
		MatrixRequestsSaved: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "routematrix", Name: "matrix_requests_saved_total"}),
		MatrixAPIRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "routematrix", Name: "matrix_api_requests_total"}, []string{"outcome"}),
		MatrixAPIDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "routematrix", Name: "matrix_api_duration_seconds"}),
		MatrixDegraded:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "routematrix", Name: "matrix_degraded_total"}),
		ServiceReady:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "routematrix", Name: "service_ready"}),
	}
}

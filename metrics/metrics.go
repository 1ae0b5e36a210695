package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog (TMDB) metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickpick_catalog_requests_total",
			Help: "Total number of catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, not_found, error, rejected
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flickpick_catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flickpick_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickpick_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Annotation store metrics
	AnnotationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickpick_annotation_operations_total",
			Help: "Total number of annotation store operations by kind and outcome",
		},
		[]string{"operation", "kind", "outcome"},
	)

	HydrationDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickpick_hydration_dropped_total",
			Help: "Movie IDs dropped from annotated lists because the catalog fetch failed",
		},
		[]string{"kind"},
	)

	// HTTP API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickpick_http_requests_total",
			Help: "Total number of API requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flickpick_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// ObserveCatalogRequest records one catalog round trip
func ObserveCatalogRequest(endpoint, outcome string, started time.Time) {
	CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// ObserveAnnotation records one annotation store operation
func ObserveAnnotation(operation, kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AnnotationOps.WithLabelValues(operation, kind, outcome).Inc()
}

// ObserveHTTPRequest records one served API request
func ObserveHTTPRequest(route, method string, status int, started time.Time) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(started).Seconds())
}

package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Tenant resolution outcomes: "cache_hit", "mapped", "auto_created",
	// "default_fallback", "rejected", "fail_open"
	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_tenant_resolutions_total",
			Help: "Total number of tenant resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// Domain mapping admin operations
	DomainMappingOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_domain_mapping_operations_total",
			Help: "Total number of domain mapping operations",
		},
		[]string{"operation"}, // "add", "remove"
	)

	// Notifications created per scan type
	NotificationCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_notifications_created_total",
			Help: "Total number of notifications created by scan type",
		},
		[]string{"type"},
	)

	// Duplicate notification inserts skipped per scan type
	NotificationDuplicateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_notifications_duplicate_total",
			Help: "Total number of notification inserts skipped as duplicates",
		},
		[]string{"type"},
	)

	// Expiry scan failures per scan type
	ScanFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_expiry_scan_failures_total",
			Help: "Total number of failed expiry scans",
		},
		[]string{"type"},
	)

	// Digest emails handed to the mail collaborator
	DigestSentCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suite_digests_sent_total",
			Help: "Total number of notification digests handed to the mailer",
		},
	)

	// Authentication / authorization errors
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suite_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suite_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)

	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suite_expiry_scan_duration_seconds",
			Help:    "Duration of expiry scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

// Gauge metrics
var (
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "suite_active_tenants",
			Help: "Number of currently active tenants",
		},
	)

	CachedDomainsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "suite_cached_domains",
			Help: "Number of domains currently held in the tenant cache",
		},
	)
)

// InitMetrics registers all metrics with the default registry
func InitMetrics() {
	prometheus.MustRegister(
		TenantResolutionCounter,
		DomainMappingOperationCounter,
		NotificationCreatedCounter,
		NotificationDuplicateCounter,
		ScanFailureCounter,
		DigestSentCounter,
		AuthErrorCounter,
		HTTPRequestCounter,
		RequestDuration,
		DBOperationDuration,
		ScanDuration,
		ActiveTenantsGauge,
		CachedDomainsGauge,
	)
}

// RecordResolution records a tenant resolution outcome
func RecordResolution(outcome string) {
	TenantResolutionCounter.WithLabelValues(outcome).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation returns a function that records the duration of a database
// operation when invoked; use with defer and time.Now()
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			endpoint := c.Path()

			HTTPRequestCounter.WithLabelValues(endpoint, method, status).Inc()
			RequestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler returns the HTTP handler exposing Prometheus metrics
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

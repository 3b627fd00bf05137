package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Metrics ingestion counters
	MetricsReceivedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_metrics_received_total",
			Help: "Total number of metrics submissions received by tenant",
		},
		[]string{"tenant_id"},
	)

	MetricsPublishedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_metrics_published_total",
			Help: "Total number of metrics payloads published to the broker",
		},
		[]string{"topic"},
	)

	ValidationFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_validation_failures_total",
			Help: "Total number of rejected metrics payloads by reason",
		},
		[]string{"reason"}, // reason can be "structure", "tenant_mismatch", etc.
	)

	// Broker error counters
	BrokerErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_broker_errors_total",
			Help: "Total number of broker failures by type",
		},
		[]string{"type"}, // type can be "disconnected", "publish_failure", "dlq_publish"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Auth counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "invalid_api_key"
	)

	APIKeyOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_api_key_operations_total",
			Help: "Total number of API key operations",
		},
		[]string{"operation"}, // operation can be "create", "revoke", "rotate", "validate"
	)

	RateLimitedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"tenant_id"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Broker publish duration
	PublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_publish_duration_seconds",
			Help:    "Duration of broker publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

// Gauge metrics
var (
	// Broker connectivity
	BrokerConnectedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_broker_connected",
			Help: "Whether the broker connection is currently established (1 or 0)",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_info",
			Help: "Information about the monitoring gateway",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(MetricsReceivedCounter)
	prometheus.MustRegister(MetricsPublishedCounter)
	prometheus.MustRegister(ValidationFailureCounter)
	prometheus.MustRegister(BrokerErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(APIKeyOperationCounter)
	prometheus.MustRegister(RateLimitedCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PublishDuration)

	// Register gauges
	prometheus.MustRegister(BrokerConnectedGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackPublish measures broker publish durations
func TrackPublish(topic string) func() {
	startTime := time.Now()
	return func() {
		duration := time.Since(startTime).Seconds()
		PublishDuration.With(prometheus.Labels{
			"topic": topic,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordMetricsReceived records an accepted metrics submission for a tenant
func RecordMetricsReceived(tenantID string) {
	if tenantID == "" {
		tenantID = "no-tenant"
	}
	MetricsReceivedCounter.With(prometheus.Labels{"tenant_id": tenantID}).Inc()
}

// RecordMetricsPublished records a successful broker publish
func RecordMetricsPublished(topic string) {
	MetricsPublishedCounter.With(prometheus.Labels{"topic": topic}).Inc()
}

// RecordValidationFailure records a rejected payload by reason
func RecordValidationFailure(reason string) {
	ValidationFailureCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordBrokerError records a broker failure by type
func RecordBrokerError(errorType string) {
	BrokerErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAPIKeyOperation records an API key operation by type
func RecordAPIKeyOperation(operation string) {
	APIKeyOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordRateLimited records a rate limited request for a tenant
func RecordRateLimited(tenantID string) {
	if tenantID == "" {
		tenantID = "no-tenant"
	}
	RateLimitedCounter.With(prometheus.Labels{"tenant_id": tenantID}).Inc()
}

// SetBrokerConnected updates the broker connectivity gauge
func SetBrokerConnected(connected bool) {
	if connected {
		BrokerConnectedGauge.Set(1)
		return
	}
	BrokerConnectedGauge.Set(0)
}

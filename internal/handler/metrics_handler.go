package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
	"github.com/travism26/system-monitoring-gateway/internal/broker"
	"github.com/travism26/system-monitoring-gateway/internal/middleware"
	"github.com/travism26/system-monitoring-gateway/internal/payload"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// MetricsHandler accepts agent telemetry and forwards it to the broker.
type MetricsHandler struct {
	broker broker.Broker
}

func NewMetricsHandler(b broker.Broker) *MetricsHandler {
	return &MetricsHandler{broker: b}
}

// Ingest validates a metrics submission and publishes it to the metrics
// topic. Structurally invalid payloads are rejected without touching the
// broker; tenant mismatches are rejected and mirrored to the errors topic;
// publish failures are mirrored to the dead letter topic.
func (h *MetricsHandler) Ingest(c echo.Context) error {
	log := logger.FromEcho(c)

	var m payload.SystemMetrics
	if err := c.Bind(&m); err != nil {
		prometheus.RecordValidationFailure("parse")
		return apperror.Wrap(apperror.KindBadRequest, "invalid metrics payload", err)
	}

	if err := m.Validate(); err != nil {
		prometheus.RecordValidationFailure("structure")
		log.Warn("Rejected malformed metrics payload",
			zap.String("field", err.Field),
			zap.String("reason", err.Message))
		return err
	}

	identity := middleware.IdentityFrom(c)
	headerTenantID := c.Request().Header.Get(middleware.HeaderTenantID)
	headerEnv := c.Request().Header.Get(middleware.HeaderTenantEnvironment)
	if headerTenantID == "" && identity != nil {
		headerTenantID = identity.TenantIDString()
	}

	payloadEnv := ""
	if m.Data.TenantMetadata != nil {
		payloadEnv = m.Data.TenantMetadata.Environment
	}
	if err := middleware.CheckPayloadTenant(headerTenantID, headerEnv, m.Data.TenantID, payloadEnv); err != nil {
		prometheus.RecordValidationFailure("tenant_mismatch")
		log.Warn("Tenant context mismatch on metrics payload",
			zap.String("header_tenant_id", headerTenantID),
			zap.String("payload_tenant_id", m.Data.TenantID))
		h.publishValidationError(c, err, headerTenantID, m)
		return err
	}

	// Stamp the authenticated context onto the payload before publishing.
	if m.Data.TenantID == "" {
		m.Data.TenantID = headerTenantID
	}
	if identity != nil && identity.APIKey != "" {
		m.Data.APIKey = identity.APIKey
	}

	if !h.broker.IsConnected() {
		prometheus.RecordBrokerError("disconnected")
		log.Error("Broker unavailable, metrics submission refused",
			zap.String("tenant_id", m.Data.TenantID))
		return apperror.ServiceUnavailable("message broker unavailable")
	}

	producer, err := h.broker.Producer(broker.TopicSystemMetrics)
	if err != nil {
		prometheus.RecordBrokerError("publish_failure")
		return apperror.Wrap(apperror.KindInternal, "metrics producer unavailable", err)
	}

	done := prometheus.TrackPublish(broker.TopicSystemMetrics)
	publishErr := producer.Publish(c.Request().Context(), m)
	done()
	if publishErr != nil {
		prometheus.RecordBrokerError("publish_failure")
		log.Error("Failed to publish metrics, routing to dead letter topic",
			zap.String("tenant_id", m.Data.TenantID),
			zap.Error(publishErr))
		h.publishDeadLetter(c, publishErr, m)
		return apperror.Wrap(apperror.KindInternal, "failed to publish metrics", publishErr)
	}

	prometheus.RecordMetricsReceived(m.Data.TenantID)
	prometheus.RecordMetricsPublished(broker.TopicSystemMetrics)
	log.Info("Metrics accepted",
		zap.String("tenant_id", m.Data.TenantID),
		zap.String("host", m.Data.Host.Hostname))

	return c.JSON(http.StatusAccepted, echo.Map{
		"status":    "accepted",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// publishValidationError mirrors a tenant validation failure to the errors
// topic. Failures here are logged and swallowed so the client still gets
// the original rejection.
func (h *MetricsHandler) publishValidationError(c echo.Context, cause *apperror.Error, headerTenantID string, m payload.SystemMetrics) {
	log := logger.FromEcho(c)

	producer, err := h.broker.Producer(broker.TopicSystemMetricsErrors)
	if err != nil {
		log.Error("Errors topic producer unavailable", zap.Error(err))
		return
	}

	event := payload.NewValidationError(cause.Message, m, headerTenantID)
	event.HeaderTenantID = headerTenantID
	event.PayloadTenantID = m.Data.TenantID
	if err := producer.Publish(c.Request().Context(), event); err != nil {
		prometheus.RecordBrokerError("publish_failure")
		log.Error("Failed to publish validation error event", zap.Error(err))
	}
}

func (h *MetricsHandler) publishDeadLetter(c echo.Context, cause error, m payload.SystemMetrics) {
	log := logger.FromEcho(c)

	producer, err := h.broker.Producer(broker.TopicSystemMetricsDLQ)
	if err != nil {
		log.Error("Dead letter producer unavailable", zap.Error(err))
		return
	}

	event := payload.NewDeadLetter(cause.Error(), m, m.Data.TenantID)
	event.Topic = broker.TopicSystemMetrics
	if err := producer.Publish(c.Request().Context(), event); err != nil {
		prometheus.RecordBrokerError("dlq_publish")
		log.Error("Failed to publish dead letter event", zap.Error(err))
	}
}

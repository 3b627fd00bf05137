package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travism26/system-monitoring-gateway/internal/broker"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// HealthHandler reports service liveness and broker connectivity.
type HealthHandler struct {
	broker broker.Broker
}

func NewHealthHandler(b broker.Broker) *HealthHandler {
	return &HealthHandler{broker: b}
}

func (h *HealthHandler) Check(c echo.Context) error {
	connected := h.broker.IsConnected()
	prometheus.SetBrokerConnected(connected)

	status := "ok"
	code := http.StatusOK
	brokerStatus := "connected"
	if !connected {
		status = "degraded"
		code = http.StatusServiceUnavailable
		brokerStatus = "disconnected"
	}

	return c.JSON(code, echo.Map{
		"status": status,
		"services": echo.Map{
			"broker": brokerStatus,
		},
	})
}

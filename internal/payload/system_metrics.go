package payload

import (
	"time"

	"github.com/travism26/system-monitoring-gateway/internal/apperror"
)

// SystemMetrics is the envelope agents POST to the ingestion endpoint. It is
// ephemeral: the gateway validates, enriches and forwards it, never persists.
type SystemMetrics struct {
	Timestamp string            `json:"timestamp"`
	Data      SystemMetricsData `json:"data"`
}

// SystemMetricsData carries the telemetry body.
type SystemMetricsData struct {
	Host           HostInfo               `json:"host"`
	Metrics        map[string]interface{} `json:"metrics"`
	Processes      ProcessSummary         `json:"processes"`
	Metadata       CollectionMetadata     `json:"metadata"`
	ThreatIndicators []ThreatIndicator    `json:"threat_indicators,omitempty"`
	TenantID       string                 `json:"tenant_id,omitempty"`
	TenantMetadata *TenantMetadata        `json:"tenant_metadata,omitempty"`
	APIKey         string                 `json:"api_key,omitempty"`
}

// HostInfo describes the reporting machine.
type HostInfo struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Hostname string `json:"hostname"`
	CPUCores int    `json:"cpu_cores"`
}

// ProcessSummary summarizes the running processes on the host.
type ProcessSummary struct {
	TotalCount int           `json:"total_count"`
	List       []ProcessInfo `json:"list"`
}

// ProcessInfo is a single process entry.
type ProcessInfo struct {
	Name        string  `json:"name"`
	PID         int     `json:"pid"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryUsage int64   `json:"memory_usage"`
	Status      string  `json:"status,omitempty"`
}

// ThreatIndicator flags suspicious activity observed by the agent.
type ThreatIndicator struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Score       float64 `json:"score,omitempty"`
}

// CollectionMetadata describes how the payload was gathered.
type CollectionMetadata struct {
	CollectionDuration string   `json:"collection_duration"`
	CollectorCount     int      `json:"collector_count"`
	Errors             []string `json:"errors,omitempty"`
}

// TenantMetadata carries the tenant environment asserted inside the body.
type TenantMetadata struct {
	Environment string `json:"environment,omitempty"`
}

// Validate performs structural validation of the payload, failing fast on the
// first violation. A payload that fails here is never forwarded to the broker.
func (m *SystemMetrics) Validate() *apperror.Error {
	if m.Timestamp == "" {
		return apperror.BadRequest("timestamp is required").WithField("timestamp")
	}
	if _, err := time.Parse(time.RFC3339, m.Timestamp); err != nil {
		return apperror.BadRequest("invalid timestamp format").WithField("timestamp")
	}
	if len(m.Data.Metrics) == 0 {
		return apperror.BadRequest("metrics data is required").WithField("data.metrics")
	}
	if m.Data.Host.Hostname == "" {
		return apperror.BadRequest("host hostname is required").WithField("data.host.hostname")
	}
	if m.Data.Host.OS == "" {
		return apperror.BadRequest("host OS is required").WithField("data.host.os")
	}
	if m.Data.Host.CPUCores <= 0 {
		return apperror.BadRequest("host CPU cores must be a positive number").WithField("data.host.cpu_cores")
	}
	if m.Data.Processes.TotalCount < 0 {
		return apperror.BadRequest("process total count must not be negative").WithField("data.processes.total_count")
	}
	if m.Data.Metadata.CollectionDuration == "" {
		return apperror.BadRequest("collection duration is required").WithField("data.metadata.collection_duration")
	}
	if m.Data.Metadata.CollectorCount <= 0 {
		return apperror.BadRequest("collector count must be a positive number").WithField("data.metadata.collector_count")
	}
	return nil
}

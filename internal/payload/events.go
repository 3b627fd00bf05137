package payload

import "time"

// ValidationError is published to the errors topic when a payload fails
// business validation. It exists for tenant-side audit, not replay.
type ValidationError struct {
	Error           string      `json:"error"`
	HeaderTenantID  string      `json:"header_tenant_id,omitempty"`
	PayloadTenantID string      `json:"payload_tenant_id,omitempty"`
	OriginalPayload interface{} `json:"original_payload,omitempty"`
	TenantID        string      `json:"tenant_id,omitempty"`
	Timestamp       string      `json:"timestamp"`
}

// DeadLetter is published to the dead-letter topic when a message could not
// be processed for infrastructure reasons. It carries the full original
// message for operator replay.
type DeadLetter struct {
	Error           string      `json:"error"`
	OriginalMessage interface{} `json:"original_message"`
	Topic           string      `json:"topic,omitempty"`
	TenantID        string      `json:"tenant_id,omitempty"`
	Timestamp       string      `json:"timestamp"`
}

// NewDeadLetter builds a dead-letter event stamped with the current time.
func NewDeadLetter(errMsg string, original interface{}, tenantID string) DeadLetter {
	return DeadLetter{
		Error:           errMsg,
		OriginalMessage: original,
		TenantID:        orNoTenant(tenantID),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// NewValidationError builds an errors-topic event stamped with the current time.
func NewValidationError(errMsg string, original interface{}, tenantID string) ValidationError {
	return ValidationError{
		Error:           errMsg,
		OriginalPayload: original,
		TenantID:        orNoTenant(tenantID),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

func orNoTenant(tenantID string) string {
	if tenantID == "" {
		return "no-tenant"
	}
	return tenantID
}

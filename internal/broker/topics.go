package broker

// Topic names carried over from the original deployment. The metrics topic
// receives accepted payloads; the errors topic collects business-validation
// rejects for tenant-side audit; the dead-letter topic collects messages that
// failed for infrastructure reasons and is kept for operator replay.
const (
	TopicSystemMetrics       = "system-metrics"
	TopicSystemMetricsErrors = "system-metrics-errors"
	TopicSystemMetricsDLQ    = "system-metrics-dlq"
)

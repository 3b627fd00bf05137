package broker

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/payload"
)

// Handler processes one decoded metrics message.
type Handler func(ctx context.Context, metrics *payload.SystemMetrics) error

// Consumer runs the per-message pipeline on a queue-group subscription:
// parse, validate identity, handle. Every failure is message-scoped; a bad
// message is routed to the errors or dead-letter topic and the loop keeps
// going.
type Consumer struct {
	topic      string
	group      string
	handler    Handler
	errors     Publisher
	deadLetter Publisher
	sub        *nats.Subscription
	log        *zap.Logger
}

func newConsumer(topic, group string, handler Handler, errors, deadLetter Publisher, log *zap.Logger) *Consumer {
	return &Consumer{
		topic:      topic,
		group:      group,
		handler:    handler,
		errors:     errors,
		deadLetter: deadLetter,
		log:        log,
	}
}

// process runs the three-stage pipeline for one message.
func (c *Consumer) process(ctx context.Context, data []byte) {
	// Stage 1: parse. Malformed JSON goes to the dead-letter topic.
	var metrics payload.SystemMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		c.log.Warn("failed to parse message",
			zap.String("topic", c.topic),
			zap.Error(err))
		c.toDeadLetter(ctx, "failed to parse message", string(data), "")
		return
	}

	// Stage 2: validate identity. A message without a tenant id is an audit
	// case, not an infrastructure failure.
	if metrics.Data.TenantID == "" {
		c.log.Warn("message missing tenant id", zap.String("topic", c.topic))
		if c.errors != nil {
			event := payload.NewValidationError("missing tenant ID in message", metrics, "")
			if err := c.errors.Publish(ctx, event); err != nil {
				c.log.Error("failed to publish to errors topic", zap.Error(err))
			}
		}
		return
	}

	// Stage 3: business handler. Any failure routes to the dead-letter topic.
	if err := c.handler(ctx, &metrics); err != nil {
		c.log.Error("handler failed",
			zap.String("topic", c.topic),
			zap.String("tenant_id", metrics.Data.TenantID),
			zap.Error(err))
		c.toDeadLetter(ctx, err.Error(), metrics, metrics.Data.TenantID)
	}
}

func (c *Consumer) toDeadLetter(ctx context.Context, errMsg string, original interface{}, tenantID string) {
	if c.deadLetter == nil {
		return
	}
	event := payload.NewDeadLetter(errMsg, original, tenantID)
	event.Topic = c.topic
	if err := c.deadLetter.Publish(ctx, event); err != nil {
		c.log.Error("failed to publish to dead-letter topic", zap.Error(err))
	}
}

// drain stops delivery after processing buffered messages.
func (c *Consumer) drain() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Drain()
}

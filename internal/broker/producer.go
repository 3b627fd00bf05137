package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsProducer publishes JSON-encoded messages to a single topic.
type natsProducer struct {
	nc    *nats.Conn
	topic string
}

func (p *natsProducer) Publish(ctx context.Context, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("broker: encode message for %s: %w", p.topic, err)
	}
	if err := p.nc.Publish(p.topic, data); err != nil {
		return fmt.Errorf("broker: publish %s: %w", p.topic, err)
	}
	return nil
}

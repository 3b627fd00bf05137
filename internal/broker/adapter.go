package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned when an operation requires a live broker
	// connection and there is none.
	ErrNotConnected = errors.New("broker: not connected")
	// ErrProducerNotFound indicates missing startup wiring: every producer
	// must be registered before the first request is served.
	ErrProducerNotFound = errors.New("broker: producer not found")
)

// Publisher sends one message to a single topic.
type Publisher interface {
	Publish(ctx context.Context, message interface{}) error
}

// Broker is the surface handlers depend on. Tests substitute a fake.
type Broker interface {
	IsConnected() bool
	Producer(topic string) (Publisher, error)
}

// Adapter manages one NATS connection, a registry of topic producers and any
// running consumers. It is constructed once at startup and handed to every
// component that needs it.
type Adapter struct {
	mu        sync.RWMutex
	nc        *nats.Conn
	producers map[string]Publisher
	consumers []*Consumer
	log       *zap.Logger
}

// NewAdapter creates an unconnected adapter.
func NewAdapter(log *zap.Logger) *Adapter {
	return &Adapter{
		producers: make(map[string]Publisher),
		log:       log,
	}
}

// Connect dials the broker. Idempotent: a second call with a live connection
// is a no-op success.
func (a *Adapter) Connect(url, clientID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.nc != nil && a.nc.IsConnected() {
		return nil
	}

	opts := []nats.Option{
		nats.Name(clientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			a.log.Warn("broker disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			a.log.Info("broker reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			a.log.Info("broker connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("broker: connect %s: %w", url, err)
	}
	a.nc = nc
	a.log.Info("connected to broker", zap.String("url", url), zap.String("client_id", clientID))
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nc != nil && a.nc.IsConnected()
}

// AddProducer registers a producer for a topic, replacing any previous one.
func (a *Adapter) AddProducer(topic string, p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.producers[topic] = p
}

// Producer retrieves the producer registered for a topic. An unknown topic is
// a wiring bug, not a runtime condition; callers treat the error as fatal.
func (a *Adapter) Producer(topic string) (Publisher, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.producers[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProducerNotFound, topic)
	}
	return p, nil
}

// NewProducer creates a JSON producer on this adapter's connection.
func (a *Adapter) NewProducer(topic string) (Publisher, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.nc == nil {
		return nil, ErrNotConnected
	}
	return &natsProducer{nc: a.nc, topic: topic}, nil
}

// Subscribe starts a queue-group consumer on a topic running the three-stage
// message pipeline. The consumer is tracked for drain on shutdown.
func (a *Adapter) Subscribe(topic, group string, handler Handler) (*Consumer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.nc == nil {
		return nil, ErrNotConnected
	}

	errorsProducer := a.producers[TopicSystemMetricsErrors]
	dlqProducer := a.producers[TopicSystemMetricsDLQ]

	consumer := newConsumer(topic, group, handler, errorsProducer, dlqProducer, a.log)
	sub, err := a.nc.QueueSubscribe(topic, group, func(msg *nats.Msg) {
		consumer.process(context.Background(), msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("broker: subscribe %s: %w", topic, err)
	}
	consumer.sub = sub
	a.consumers = append(a.consumers, consumer)
	a.log.Info("consumer started", zap.String("topic", topic), zap.String("group", group))
	return consumer, nil
}

// Close drains all consumers and flushes outstanding publishes before closing
// the connection. Safe to call from signal-driven shutdown, and safe to call
// when never connected.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.nc == nil {
		return nil
	}

	var firstErr error
	for _, consumer := range a.consumers {
		if err := consumer.drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.consumers = nil

	if err := a.nc.FlushWithContext(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	a.nc.Close()
	a.nc = nil
	a.producers = make(map[string]Publisher)
	a.log.Info("broker disconnected")
	return firstErr
}

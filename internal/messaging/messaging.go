// Package messaging publishes and consumes order change notifications.
package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

// Message is an event read from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. A non-nil error leaves the message
// uncommitted.
type Handler func(context.Context, Message) error

// Client publishes to and consumes from the configured topic.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient returns the kafka client, or a no-op client when messaging is disabled.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	logger = logger.Named("messaging")
	if !cfg.Messaging.Enabled || cfg.Messaging.Driver == "noop" {
		logger.Info("messaging disabled; order events will not be published")
		return noopClient{topic: cfg.Messaging.Kafka.Topic}, nil
	}

	switch cfg.Messaging.Driver {
	case "kafka":
		client := newKafkaClient(cfg.Messaging, logger)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }

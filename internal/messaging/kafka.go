package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

const (
	writeBatchTimeout = 10 * time.Millisecond
	fetchRetryDelay   = time.Second
)

// kafkaClient publishes synchronously and creates its consumer group reader
// on the first Consume call, so publish-only processes never join the group.
type kafkaClient struct {
	cfg    config.Messaging
	writer *kafka.Writer
	logger *zap.Logger

	mu     sync.Mutex
	reader *kafka.Reader
}

func newKafkaClient(cfg config.Messaging, logger *zap.Logger) *kafkaClient {
	return &kafkaClient{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: writeBatchTimeout,
			Logger:       kafkaLogger{logger: logger},
			ErrorLogger:  kafkaLogger{logger: logger, errors: true},
		},
		logger: logger,
	}
}

func (k *kafkaClient) Topic() string { return k.cfg.Kafka.Topic }

// Publish writes one message. Keys hash to partitions so events of one order
// stay in order.
func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	msg := kafka.Message{Key: key, Value: value, Headers: toKafkaHeaders(headers)}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", k.Topic(), err)
	}
	return nil
}

// Consume fetches messages until ctx ends, committing each one its handler accepts.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	reader := k.consumer()
	for {
		raw, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := handler(ctx, fromKafkaMessage(raw)); err != nil {
			// Left uncommitted; redelivered after a restart or rebalance.
			k.logger.Warn("order event not committed", zap.Int64("offset", raw.Offset), zap.Error(err))
			continue
		}
		if err := reader.CommitMessages(ctx, raw); err != nil {
			k.logger.Warn("kafka commit failed", zap.Int64("offset", raw.Offset), zap.Error(err))
		}
	}
}

// Close flushes the writer and leaves the consumer group.
func (k *kafkaClient) Close() error {
	err := k.writer.Close()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader != nil {
		err = errors.Join(err, k.reader.Close())
	}
	return err
}

func (k *kafkaClient) consumer() *kafka.Reader {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader == nil {
		k.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:        k.cfg.Kafka.Brokers,
			GroupID:        k.cfg.ConsumerGroup,
			Topic:          k.cfg.Kafka.Topic,
			MinBytes:       k.cfg.Kafka.MinBytes,
			MaxBytes:       k.cfg.Kafka.MaxBytes,
			CommitInterval: k.cfg.Kafka.CommitInterval,
			Dialer: &kafka.Dialer{
				Timeout:  k.cfg.Kafka.ConnectTimeout,
				ClientID: k.cfg.Kafka.ClientID,
			},
		})
		k.logger.Info("kafka consumer joined group",
			zap.String("group", k.cfg.ConsumerGroup),
			zap.String("topic", k.cfg.Kafka.Topic),
		)
	}
	return k.reader
}

func fromKafkaMessage(m kafka.Message) Message {
	return Message{
		Topic:   m.Topic,
		Key:     append([]byte(nil), m.Key...),
		Value:   append([]byte(nil), m.Value...),
		Headers: fromKafkaHeaders(m.Headers),
		Offset:  m.Offset,
		Time:    m.Time,
	}
}

// toKafkaHeaders orders headers by key so encoded messages are deterministic.
func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}

func fromKafkaHeaders(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

// kafkaLogger adapts zap to kafka.Logger.
type kafkaLogger struct {
	logger *zap.Logger
	errors bool
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	if k.errors {
		k.logger.Sugar().Warnf(msg, args...)
		return
	}
	k.logger.Sugar().Debugf(msg, args...)
}

package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/messaging"
	ordersvc "github.com/Additional-Code/serviceorders/internal/service/order"
	"github.com/Additional-Code/serviceorders/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/serviceorders/worker/order")

// Module registers the order event handler with the worker engine.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventsHandler consumes order change notifications and logs them.
func NewEventsHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	logger = logger.Named("orders.events")

	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		event, err := decodeEvent(msg)
		if err != nil {
			logger.Error("failed to decode order event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("order.event", event.Type), attribute.Int64("order.id", event.ID))

		fields := []zap.Field{zap.Int64("id", event.ID), zap.Time("occurred_at", event.OccurredAt)}
		switch event.Type {
		case ordersvc.EventOrderCreated:
			logger.Info("order created", append(fields, zap.String("reference", event.Reference), zap.String("status", event.Status))...)
		case ordersvc.EventOrderUpdated:
			logger.Info("order updated", append(fields, zap.String("reference", event.Reference), zap.String("status", event.Status))...)
		case ordersvc.EventOrderDeleted:
			logger.Info("order deleted", fields...)
		default:
			logger.Warn("skipping unknown order event", zap.String("type", event.Type))
		}
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

// decodeEvent prefers the event type header over the payload field.
func decodeEvent(msg messaging.Message) (ordersvc.Event, error) {
	var event ordersvc.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return ordersvc.Event{}, fmt.Errorf("decode order event: %w", err)
	}
	if t := msg.Headers[ordersvc.HeaderEventType]; t != "" {
		event.Type = t
	}
	return event, nil
}

package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"

	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type metrics struct {
	operations metric.Int64Counter
}

func newMetrics(logger *zap.Logger) *metrics {
	meter := otel.Meter("github.com/Additional-Code/serviceorders/service/order")
	counter, err := meter.Int64Counter(
		"service_orders.operations",
		metric.WithDescription("Service order operations by outcome"),
	)
	if err != nil {
		logger.Warn("order metrics disabled", zap.Error(err))
		return &metrics{}
	}
	return &metrics{operations: counter}
}

func (m *metrics) record(ctx context.Context, op, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

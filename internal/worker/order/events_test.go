package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/messaging"
	ordersvc "github.com/Additional-Code/serviceorders/internal/service/order"
)

func TestEventsHandlerLogsEachType(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "service-orders.events"}}}
	reg := NewEventsHandler(zap.New(core), cfg)
	require.Equal(t, "service-orders.events", reg.Topic)

	for _, typ := range []string{ordersvc.EventOrderCreated, ordersvc.EventOrderUpdated, ordersvc.EventOrderDeleted, "order.archived"} {
		payload, err := json.Marshal(ordersvc.Event{ID: 7, Reference: "SO-7", Status: "Pendiente", OccurredAt: time.Now()})
		require.NoError(t, err)
		msg := messaging.Message{
			Topic:   reg.Topic,
			Value:   payload,
			Headers: map[string]string{ordersvc.HeaderEventType: typ},
		}
		require.NoError(t, reg.Handler(context.Background(), msg))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	require.Equal(t, "order created", entries[0].Message)
	require.Equal(t, "order updated", entries[1].Message)
	require.Equal(t, "order deleted", entries[2].Message)
	require.Equal(t, zapcore.WarnLevel, entries[3].Level)
}

func TestEventsHandlerFallsBackToPayloadType(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := NewEventsHandler(zap.New(core), config.Config{})

	payload, err := json.Marshal(ordersvc.Event{Type: ordersvc.EventOrderDeleted, ID: 3})
	require.NoError(t, err)
	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Value: payload}))

	require.Equal(t, 1, logs.FilterMessage("order deleted").Len())
}

func TestEventsHandlerRejectsGarbage(t *testing.T) {
	reg := NewEventsHandler(zap.NewNop(), config.Config{})
	require.Error(t, reg.Handler(context.Background(), messaging.Message{Value: []byte("{")}))
}

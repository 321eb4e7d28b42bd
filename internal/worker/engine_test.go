package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/messaging"
)

// chanClient delivers queued messages to Consume until the context ends.
type chanClient struct {
	msgs chan messaging.Message
}

func (c *chanClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }
func (c *chanClient) Topic() string                                                    { return "orders" }
func (c *chanClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.msgs:
			_ = handler(ctx, msg)
		}
	}
}

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 2},
	}}
}

func TestDispatch(t *testing.T) {
	failing := errors.New("handler failed")
	var seen []string
	engine := NewEngine(Params{
		Client: &chanClient{},
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Topic: "orders", Handler: func(_ context.Context, msg messaging.Message) error {
				seen = append(seen, string(msg.Key))
				return nil
			}},
			{Topic: "broken", Handler: func(context.Context, messaging.Message) error { return failing }},
			{Topic: "", Handler: func(context.Context, messaging.Message) error { return nil }},
		},
	})

	ctx := context.Background()
	require.NoError(t, engine.Dispatch(ctx, messaging.Message{Topic: "orders", Key: []byte("order-1")}))
	require.NoError(t, engine.Dispatch(ctx, messaging.Message{Topic: "unknown"}))
	require.ErrorIs(t, engine.Dispatch(ctx, messaging.Message{Topic: "broken"}), failing)
	require.Equal(t, []string{"order-1"}, seen)
}

func TestEngineConsumesUntilStopped(t *testing.T) {
	client := &chanClient{msgs: make(chan messaging.Message, 3)}
	var (
		mu   sync.Mutex
		keys []string
	)
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{{Topic: "orders", Handler: func(_ context.Context, msg messaging.Message) error {
			mu.Lock()
			defer mu.Unlock()
			keys = append(keys, string(msg.Key))
			return nil
		}}},
	})

	lc := fxtest.NewLifecycle(t)
	lc.Append(fxHook(engine))
	lc.RequireStart()

	for _, k := range []string{"a", "b", "c"} {
		client.msgs <- messaging.Message{Topic: "orders", Key: []byte(k)}
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(keys) == 3
	}, 2*time.Second, 10*time.Millisecond)

	lc.RequireStop()
}

func TestEngineDisabled(t *testing.T) {
	engine := NewEngine(Params{Client: &chanClient{}, Logger: zap.NewNop(), Config: config.Config{}})
	require.NoError(t, engine.start(context.Background()))
	require.Nil(t, engine.cancel)
	require.False(t, engine.enabled)
	require.NoError(t, engine.stop(context.Background()))
}

// flakyClient fails its first Consume call, then behaves like chanClient.
type flakyClient struct {
	chanClient
	mu    sync.Mutex
	calls int
}

func (c *flakyClient) Consume(ctx context.Context, handler messaging.Handler) error {
	c.mu.Lock()
	c.calls++
	first := c.calls == 1
	c.mu.Unlock()
	if first {
		return errors.New("broker unavailable")
	}
	return c.chanClient.Consume(ctx, handler)
}

func TestRunRestartsFailedConsumer(t *testing.T) {
	client := &flakyClient{chanClient: chanClient{msgs: make(chan messaging.Message, 1)}}
	cfg := enabledConfig()
	cfg.Messaging.Workers.Concurrency = 1
	cfg.Messaging.Workers.PollInterval = time.Millisecond

	handled := make(chan struct{}, 1)
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: cfg,
		Registrations: []HandlerRegistration{{Topic: "orders", Handler: func(context.Context, messaging.Message) error {
			handled <- struct{}{}
			return nil
		}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	client.msgs <- messaging.Message{Topic: "orders"}
	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("message not handled after consumer restart")
	}

	cancel()
	require.NoError(t, <-done)
}

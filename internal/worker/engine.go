// Package worker runs background consumers of the order event topic.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds a message topic to the handler consuming it.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a pool of consumers and dispatches each message to the handler
// registered for its topic.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	enabled  bool
	workers  int
	backoff  time.Duration
	handlers map[string]messaging.Handler

	cancel context.CancelFunc
	done   chan error
}

// NewEngine constructs the worker Engine. Registrations without a topic or
// handler are ignored.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic != "" && r.Handler != nil {
			handlers[r.Topic] = r.Handler
		}
	}

	workers := p.Config.Messaging.Workers.Concurrency
	if workers <= 0 {
		workers = 1
	}
	backoff := p.Config.Messaging.Workers.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Engine{
		client:   p.Client,
		logger:   p.Logger.Named("worker"),
		enabled:  p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		workers:  workers,
		backoff:  backoff,
		handlers: handlers,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fxHook(engine))
	}),
)

func fxHook(e *Engine) fx.Hook {
	return fx.Hook{OnStart: e.start, OnStop: e.stop}
}

func (e *Engine) start(context.Context) error {
	switch {
	case !e.enabled:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.handlers) == 0:
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan error, 1)

	go func() { e.done <- e.Run(ctx) }()

	e.logger.Info("worker engine started", zap.Int("workers", e.workers))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-e.done:
		e.logger.Info("worker engine stopped")
		return err
	}
}

// Run consumes with the configured number of workers until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		id := i
		g.Go(func() error {
			e.consume(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

// consume restarts the client's consume loop after failures, backing off
// exponentially up to maxBackoff.
func (e *Engine) consume(ctx context.Context, id int) {
	backoff := e.backoff
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("worker", id),
			)
			return e.Dispatch(msgCtx, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop failed", zap.Int("worker", id), zap.Duration("retry_in", backoff), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// Dispatch hands msg to the handler registered for its topic. Messages on
// unknown topics are acknowledged and dropped.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}
	if err := handler(ctx, msg); err != nil {
		e.logger.Error("message handler failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Package observability configures OpenTelemetry tracing and metrics for the process.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Manager owns the tracer and meter providers behind the otel globals used by
// the order service, repository and HTTP middleware.
type Manager struct {
	cfg    config.Observability
	logger *zap.Logger

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
}

// Module exposes the observability manager to Fx.
var Module = fx.Provide(NewManager)

// NewManager builds the providers enabled in cfg and installs them as otel
// globals when the application starts.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	obs := cfg.Observability
	m := &Manager{cfg: obs, logger: logger.Named("observability")}

	res, err := sdkresource.New(context.Background(),
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(obs.ServiceName),
			semconv.ServiceVersion(obs.ServiceVersion),
			attribute.String("service.environment", obs.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	if obs.EnableTracing {
		if m.tracerProvider, err = m.newTracerProvider(res); err != nil {
			return nil, err
		}
	}
	if obs.EnableMetrics {
		if m.meterProvider, m.metricsHandler, err = m.newMeterProvider(res); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			m.Install()
			m.logger.Info("telemetry configured",
				zap.Bool("tracing", m.TracingEnabled()),
				zap.Bool("metrics", m.MetricsEnabled()),
			)
			return nil
		},
		OnStop: m.Shutdown,
	})

	return m, nil
}

// Install publishes the configured providers as the otel globals.
func (m *Manager) Install() {
	if m.tracerProvider != nil {
		otel.SetTracerProvider(m.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meterProvider != nil {
		otel.SetMeterProvider(m.meterProvider)
	}
}

// Shutdown flushes pending spans and metrics.
func (m *Manager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if m.tracerProvider != nil {
		errs = append(errs, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		errs = append(errs, m.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// TracingEnabled reports whether spans are exported.
func (m *Manager) TracingEnabled() bool { return m.tracerProvider != nil }

// MetricsEnabled reports whether metrics are exported.
func (m *Manager) MetricsEnabled() bool { return m.meterProvider != nil }

// MetricsHandler serves the Prometheus exposition, or nil for other exporters.
func (m *Manager) MetricsHandler() http.Handler { return m.metricsHandler }

// PrometheusPath is the route the metrics handler is mounted on.
func (m *Manager) PrometheusPath() string { return m.cfg.PrometheusPath }

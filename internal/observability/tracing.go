package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const otlpDialTimeout = 10 * time.Second

// newTracerProvider returns nil when the exporter is unknown; tracing then stays off.
func (m *Manager) newTracerProvider(res *sdkresource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch m.cfg.TraceExporter {
	case "", "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exporter, err = m.otlpExporter()
	default:
		m.logger.Warn("unsupported trace exporter; tracing disabled", zap.String("exporter", m.cfg.TraceExporter))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", m.cfg.TraceExporter, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(m.cfg.TraceSampleRatio))),
	), nil
}

func (m *Manager) otlpExporter() (sdktrace.SpanExporter, error) {
	if m.cfg.TraceEndpoint == "" {
		return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for the otlp exporter")
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(m.cfg.TraceEndpoint)}
	if m.cfg.TraceInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	ctx, cancel := context.WithTimeout(context.Background(), otlpDialTimeout)
	defer cancel()
	return otlptracegrpc.New(ctx, opts...)
}

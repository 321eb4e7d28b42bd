package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

func TestNewManagerDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{Observability: config.Observability{ServiceName: "serviceorders"}}, zap.NewNop())
	require.NoError(t, err)

	require.False(t, mgr.TracingEnabled())
	require.False(t, mgr.MetricsEnabled())
	require.Nil(t, mgr.MetricsHandler())

	lc.RequireStart()
	lc.RequireStop()
}

func TestPrometheusHandlerExposesOrderMetrics(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{Observability: config.Observability{
		ServiceName:     "serviceorders",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, mgr.MetricsEnabled())
	require.Equal(t, "/metrics", mgr.PrometheusPath())

	counter, err := mgr.meterProvider.Meter("test").Int64Counter("service_orders.operations")
	require.NoError(t, err)
	counter.Add(context.Background(), 1, metric.WithAttributes())

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "service_orders_operations"), body)
	require.Contains(t, body, "go_goroutines")

	require.NoError(t, mgr.Shutdown(context.Background()))
}

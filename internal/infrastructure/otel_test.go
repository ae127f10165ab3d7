package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilboard/internal/config"
)

func quietLogger() *slog.Logger {
	return NewLogger(io.Discard, nil)
}

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "stdout"

	providers, err := InitializeOTel(cfg, "test", quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_DisabledFallsBackToNoop(t *testing.T) {
	cfg := config.TelemetryConfig{Environment: "test", TraceExporter: "none"}

	providers, err := InitializeOTel(cfg, "test", quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordUpstreamCall(context.Background(), "users", "list", "ok", time.Millisecond)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelInitialization_RepeatedInitDoesNotCollide(t *testing.T) {
	cfg := config.Default().Telemetry

	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(cfg, "test", quietLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, "test", quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

// TestPrometheusEndpoint tests that recorded metrics show up on the scrape handler
func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(config.Default().Telemetry, "test", quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordUpstreamCall(ctx, "problems", "list", "degraded", 20*time.Millisecond)
	metrics.RecordNotification(ctx, "notify", "")
	metrics.RecordNotification(ctx, "send", "not_configured")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "upstream_calls_total")
	assert.Contains(t, body, `outcome="degraded"`)
	assert.Contains(t, body, "notifications_total")
	assert.Contains(t, body, `outcome="not_configured"`)
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.RecordUpstreamCall(context.Background(), "users", "list", "failed", time.Second)
		m.RecordNotification(context.Background(), "send", "")
		m.RecordStreamClients(context.Background(), 1)
		m.RecordStreamBroadcast(context.Background(), "dashboard")
	})
}

func TestRecordError(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, "test", quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "failing")
	assert.NotPanics(t, func() { RecordError(ctx, errors.New("boom")) })
	span.End()

	// no span in context is a no-op
	assert.NotPanics(t, func() { RecordError(context.Background(), errors.New("boom")) })
}

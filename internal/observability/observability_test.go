package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-insights/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestNewLoggerTo_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello", "rows", 3)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestNewLoggerTo_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "debug", Format: "text"})
	logger.With("component", "test").Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "component=test")
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestMetrics_ObserveRender(t *testing.T) {
	m := NewMetrics()
	m.ObserveRender(2*time.Millisecond, 10)
	m.ObserveRender(3*time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renders))
}

func TestMetrics_ObserveRequestAndHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("GET", "GET /api/kpis", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/kpis", 200, 7*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/kpis", 400, time.Millisecond)
	m.SetDataset(120, map[string]int{"negative-sales": 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/kpis", "200")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.datasetRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.qualityIssues.WithLabelValues("negative-sales")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "sales_insights_http_requests_total")
	assert.Contains(t, body, "sales_insights_dataset_rows 120")
	assert.Contains(t, body, "go_goroutines")
}

func TestNewTracing_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracing(config.TelemetryConfig{
		ServiceName:   "sales-insights-test",
		TraceExporter: "stdout",
	}, &buf, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "dashboard.view")
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "dashboard.view")
	assert.Contains(t, buf.String(), "sales-insights-test")
}

func TestNewTracing_None(t *testing.T) {
	tr, err := NewTracing(config.TelemetryConfig{TraceExporter: "none"}, nil, slog.Default())
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "ignored")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestNewTracing_Unsupported(t *testing.T) {
	_, err := NewTracing(config.TelemetryConfig{TraceExporter: "zipkin"}, nil, slog.Default())
	assert.Error(t, err)
}

package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-insights/internal/config"
	"sales-insights/internal/models"
	"sales-insights/internal/observability"
	"sales-insights/internal/services"
)

func newTestDashboard() *services.Dashboard {
	day := func(m time.Month, d int) time.Time {
		return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
	}
	table := models.NewSalesTable("superstore.csv", []models.SalesRecord{
		{OrderID: "CA-1", OrderDate: day(1, 10), ShipDate: day(1, 12), Region: "East", Category: "Furniture", Sales: 100, Profit: 10, Discount: 0.1},
		{OrderID: "CA-2", OrderDate: day(2, 12), ShipDate: day(2, 14), Region: "West", Category: "Technology", Sales: 200, Profit: 20, Discount: 0.2},
		{OrderID: "CA-3", OrderDate: day(3, 2), ShipDate: day(3, 1), Region: "South", Category: "Office Supplies", Sales: 50, Profit: -5, Discount: 0},
	})
	return services.NewDashboard(table, services.WithLogger(slog.New(slog.DiscardHandler)))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  100,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config, metrics *observability.Metrics) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	tracing, err := observability.NewTracing(config.TelemetryConfig{TraceExporter: "none"}, nil, logger)
	if err != nil {
		t.Fatalf("NewTracing() failed: %v", err)
	}
	return newHandler(cfg, newTestDashboard(), metrics, tracing, logger)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDashboardPage(t *testing.T) {
	h := newTestHandler(t, newTestConfig(), nil)

	w := get(t, h, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %q", ct)
	}

	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("expected cache-control %q, got %q", cacheMaxAge, cc)
	}

	body := w.Body.String()
	expected := []string{
		"superstore.csv",
		"data-signals",
		`<option value="East" selected>East</option>`,
		"Showing 3 of 3 rows",
		"£350",
		"Ship Date earlier than Order Date.",
		"chart.js",
	}
	for _, content := range expected {
		if !strings.Contains(body, content) {
			t.Errorf("expected page to contain %q", content)
		}
	}
}

func TestMiddlewareChain(t *testing.T) {
	h := newTestHandler(t, newTestConfig(), nil)

	w := get(t, h, "/api/kpis")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("expected %s %q, got %q", name, want, got)
		}
	}

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHandler(t, newTestConfig(), nil)

	if w := get(t, h, "/missing"); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.Security.RateLimitRPS = 1
	cfg.Security.RateLimitBurst = 2
	h := newTestHandler(t, cfg, nil)

	var limited int
	for range 5 {
		if w := get(t, h, "/health"); w.Code == http.StatusTooManyRequests {
			limited++
			if w.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header on limited response")
			}
		}
	}

	if limited == 0 {
		t.Error("expected some requests to be rate limited")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	logger := slog.New(slog.DiscardHandler)
	tracing, err := observability.NewTracing(config.TelemetryConfig{}, nil, logger)
	if err != nil {
		t.Fatalf("NewTracing() failed: %v", err)
	}
	d := services.NewDashboard(newTestDashboard().Table(),
		services.WithLogger(logger),
		services.WithRecorder(metrics),
	)
	h := newHandler(newTestConfig(), d, metrics, tracing, logger)

	get(t, h, "/api/kpis")
	get(t, h, "/sse/dashboard?region=East")

	w := get(t, h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body, _ := io.ReadAll(w.Body)
	expected := []string{
		`sales_insights_http_requests_total{method="GET",route="GET /api/kpis",status="200"} 1`,
		"sales_insights_dashboard_renders_total 1",
		"go_goroutines",
	}
	for _, content := range expected {
		if !strings.Contains(string(body), content) {
			t.Errorf("expected metrics to contain %q", content)
		}
	}
}

func TestViolations(t *testing.T) {
	q := newTestDashboard().Quality()

	got := violations(q)
	if got[string(models.QualityDateOrder)] != 1 {
		t.Errorf("expected one date-order violation, got %v", got)
	}
	if len(got) != 1 {
		t.Errorf("expected only date-order to be reported, got %v", got)
	}
}

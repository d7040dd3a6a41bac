package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
)

func newTestSSE() *SSEHandlers {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSSEHandlers(createTestDashboard(), logger)
}

func checkSSEHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected cache-control 'no-cache', got %q", cc)
	}
}

func TestNewSSEHandlers(t *testing.T) {
	dashboard := createTestDashboard()
	logger := slog.New(slog.DiscardHandler)

	handlers := NewSSEHandlers(dashboard, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}

	if handlers.dashboard != dashboard {
		t.Error("NewSSEHandlers() should set dashboard field")
	}

	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleDashboard_Signals(t *testing.T) {
	handlers := newTestSSE()

	signals := `{"regions":["East"],"categories":[],"start":"2024-01-10","end":"2024-02-12"}`
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+url.QueryEscape(signals), nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)

	body := w.Body.String()
	expected := []string{
		"datastar-patch-signals",
		"monthlyData",
		`"labels":["2024-01"]`,
		"categoryData",
		"scatterData",
		"datastar-patch-elements",
		`<div id="filter-errors"></div>`,
		"Showing 1 of 2 rows",
		`id="forecast"`,
		"<td>Furniture</td>",
	}
	for _, content := range expected {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE response to contain %q", content)
		}
	}

	if strings.Contains(body, "<td>Technology</td>") {
		t.Error("filtered category table should not list Technology")
	}
}

func TestSSEHandlers_HandleDashboard_QueryFallback(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?category=Technology", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)

	body := w.Body.String()
	if !strings.Contains(body, "Showing 1 of 2 rows") {
		t.Error("expected row count for the Technology filter")
	}
	if !strings.Contains(body, "<td>Technology</td>") {
		t.Error("expected Technology in the category table")
	}
}

func TestSSEHandlers_HandleDashboard_InvalidSelection(t *testing.T) {
	handlers := newTestSSE()

	signals := `{"regions":[],"categories":[],"start":"2024-03-01","end":"2024-01-01"}`
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+url.QueryEscape(signals), nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)

	body := w.Body.String()
	if !strings.Contains(body, "end: must not be before start") {
		t.Errorf("expected range error in response, got %q", body)
	}
	if strings.Contains(body, "monthlyData") {
		t.Error("invalid selection should not patch chart signals")
	}
}

func TestSSEHandlers_HandleDashboard_MalformedSignals(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+url.QueryEscape("{not json"), nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)

	if !strings.Contains(w.Body.String(), "signals: could not be read") {
		t.Error("expected malformed signals to be reported")
	}
}

func TestSSEHandlers_HandleKPIs(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/kpis", nil)
	w := httptest.NewRecorder()

	handlers.HandleKPIs(w, req)

	checkSSEHeaders(t, w)

	body := w.Body.String()
	for _, content := range []string{`id="kpi-cards"`, "£300", "10.0%", "£150"} {
		if !strings.Contains(body, content) {
			t.Errorf("expected KPI fragment to contain %q", content)
		}
	}
}

func TestSSEHandlers_HandleQuality(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/quality", nil)
	w := httptest.NewRecorder()

	handlers.HandleQuality(w, req)

	checkSSEHeaders(t, w)

	if !strings.Contains(w.Body.String(), "No issues detected in basic checks.") {
		t.Error("expected clean quality panel")
	}
}

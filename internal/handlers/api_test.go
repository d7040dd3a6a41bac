package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sales-insights/internal/models"
	"sales-insights/internal/services"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestDashboard() *services.Dashboard {
	table := models.NewSalesTable("test.csv", []models.SalesRecord{
		{
			OrderID:   "CA-1",
			OrderDate: day(2024, time.January, 10),
			ShipDate:  day(2024, time.January, 12),
			Region:    "East",
			Category:  "Furniture",
			Sales:     100,
			Profit:    10,
			Discount:  0.1,
		},
		{
			OrderID:   "CA-2",
			OrderDate: day(2024, time.February, 12),
			ShipDate:  day(2024, time.February, 15),
			Region:    "West",
			Category:  "Technology",
			Sales:     200,
			Profit:    20,
			Discount:  0.2,
		},
	})
	return services.NewDashboard(table, services.WithLogger(slog.New(slog.DiscardHandler)))
}

func newTestAPI() *APIHandlers {
	return NewAPIHandlers(createTestDashboard(), slog.New(slog.DiscardHandler))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return resp
}

func TestNewAPIHandlers(t *testing.T) {
	dashboard := createTestDashboard()
	logger := slog.Default()
	handlers := NewAPIHandlers(dashboard, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}

	if handlers.dashboard != dashboard {
		t.Error("NewAPIHandlers() should set dashboard field")
	}
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	w := httptest.NewRecorder()

	handlers.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	resp := decode(t, w)
	if !resp.Success {
		t.Error("expected success=true in response")
	}

	var kpis models.KPIs
	if err := json.Unmarshal(resp.Data, &kpis); err != nil {
		t.Fatalf("failed to decode KPIs: %v", err)
	}
	if kpis.TotalSales != 300 || kpis.TotalProfit != 30 {
		t.Errorf("expected totals 300/30, got %v/%v", kpis.TotalSales, kpis.TotalProfit)
	}
	if kpis.AvgOrderValue != 150 {
		t.Errorf("expected average order value 150, got %v", kpis.AvgOrderValue)
	}
}

func TestAPIHandlers_HandleQuality(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/quality", nil)
	w := httptest.NewRecorder()

	handlers.HandleQuality(w, req)

	resp := decode(t, w)
	var q qualityResponse
	if err := json.Unmarshal(resp.Data, &q); err != nil {
		t.Fatalf("failed to decode quality: %v", err)
	}

	if !q.OK {
		t.Error("expected clean dataset to pass quality checks")
	}
	if q.Summary != models.NoQualityIssues {
		t.Errorf("expected summary %q, got %q", models.NoQualityIssues, q.Summary)
	}
	if q.Issues == nil || len(q.Issues) != 0 {
		t.Errorf("expected empty issue list, got %v", q.Issues)
	}
}

func TestAPIHandlers_HandleFilters(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	w := httptest.NewRecorder()

	handlers.HandleFilters(w, req)

	resp := decode(t, w)
	var opts models.FilterOptions
	if err := json.Unmarshal(resp.Data, &opts); err != nil {
		t.Fatalf("failed to decode filter options: %v", err)
	}

	if len(opts.Regions) != 2 || opts.Regions[0] != "East" || opts.Regions[1] != "West" {
		t.Errorf("unexpected regions: %v", opts.Regions)
	}
	if !opts.MinDate.Equal(day(2024, time.January, 10)) || !opts.MaxDate.Equal(day(2024, time.February, 12)) {
		t.Errorf("unexpected date bounds: %v - %v", opts.MinDate, opts.MaxDate)
	}
}

func TestAPIHandlers_HandleMonthly(t *testing.T) {
	handlers := newTestAPI()

	tests := []struct {
		name   string
		url    string
		months int
	}{
		{name: "no filters", url: "/api/monthly", months: 2},
		{name: "region", url: "/api/monthly?region=East", months: 1},
		{name: "comma separated", url: "/api/monthly?region=East,West", months: 2},
		{name: "repeated", url: "/api/monthly?region=East&region=West", months: 2},
		{name: "date range", url: "/api/monthly?start=2024-02-01&end=2024-02-29", months: 1},
		{name: "unknown region", url: "/api/monthly?region=North", months: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.HandleMonthly(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}

			resp := decode(t, w)
			var monthly []models.MonthlySummary
			if err := json.Unmarshal(resp.Data, &monthly); err != nil {
				t.Fatalf("failed to decode monthly: %v", err)
			}
			if len(monthly) != tt.months {
				t.Errorf("expected %d months, got %d", tt.months, len(monthly))
			}
			if monthly == nil {
				t.Error("expected an empty array rather than null")
			}
		})
	}
}

func TestAPIHandlers_InvalidSelection(t *testing.T) {
	handlers := newTestAPI()

	tests := []struct {
		name  string
		url   string
		field string
	}{
		{name: "bad start", url: "/api/view?start=01/02/2024", field: "start"},
		{name: "bad end", url: "/api/categories?end=2024-13-01", field: "end"},
		{name: "inverted range", url: "/api/forecast?start=2024-02-01&end=2024-01-01", field: "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			switch {
			case tt.field == "start":
				handlers.HandleView(w, req)
			case tt.name == "bad end":
				handlers.HandleCategories(w, req)
			default:
				handlers.HandleForecast(w, req)
			}

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}

			resp := decode(t, w)
			if resp.Success {
				t.Error("expected success=false in response")
			}
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected validation error, got %+v", resp.Error)
			}
			if _, ok := resp.Error.Fields[tt.field]; !ok {
				t.Errorf("expected field %q in %v", tt.field, resp.Error.Fields)
			}
		})
	}
}

func TestAPIHandlers_HandleView(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/view?region=East&start=2024-01-10&end=2024-02-12", nil)
	w := httptest.NewRecorder()

	handlers.HandleView(w, req)

	resp := decode(t, w)
	var vm models.ViewModel
	if err := json.Unmarshal(resp.Data, &vm); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}

	if vm.FilteredRows != 1 {
		t.Errorf("expected 1 filtered row, got %d", vm.FilteredRows)
	}
	if len(vm.Categories) != 1 || vm.Categories[0].Category != "Furniture" {
		t.Errorf("unexpected categories: %+v", vm.Categories)
	}
	if vm.KPIs.TotalSales != 300 {
		t.Errorf("KPIs should cover the whole dataset, got total %v", vm.KPIs.TotalSales)
	}
}

func TestAPIHandlers_HandleForecast(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	w := httptest.NewRecorder()

	handlers.HandleForecast(w, req)

	resp := decode(t, w)
	var f forecastResponse
	if err := json.Unmarshal(resp.Data, &f); err != nil {
		t.Fatalf("failed to decode forecast: %v", err)
	}

	if f.Sufficient {
		t.Error("two months should not be enough for a forecast")
	}
	if f.Text != models.ForecastText(f.Forecast) {
		t.Errorf("unexpected forecast text %q", f.Text)
	}
}

func TestAPIHandlers_HandleDiscountProfit(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/api/discount-profit?category=Technology", nil)
	w := httptest.NewRecorder()

	handlers.HandleDiscountProfit(w, req)

	resp := decode(t, w)
	var points []models.DiscountProfitPoint
	if err := json.Unmarshal(resp.Data, &points); err != nil {
		t.Fatalf("failed to decode points: %v", err)
	}
	if len(points) != 1 || points[0].Discount != 0.2 || points[0].Profit != 20 {
		t.Errorf("unexpected points: %+v", points)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decode(t, w)
	var health map[string]any
	if err := json.Unmarshal(resp.Data, &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", health["status"])
	}
	if health["rows"] != float64(2) {
		t.Errorf("expected rows 2, got %v", health["rows"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	resp := decode(t, w)
	var stats map[string]any
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["source"] != "test.csv" {
		t.Errorf("expected source 'test.csv', got %v", stats["source"])
	}
	if stats["record_count"] != float64(2) {
		t.Errorf("expected record_count 2, got %v", stats["record_count"])
	}
}

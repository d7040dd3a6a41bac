package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
	"sales-insights/internal/observability"
	"sales-insights/internal/services"
)

// The dataset never changes while the process runs, so every response may
// be cached by clients.
var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	started   time.Time
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		started:   time.Now(),
	}
}

type qualityResponse struct {
	OK       bool                  `json:"ok"`
	Issues   []models.QualityIssue `json:"issues"`
	Messages []string              `json:"messages"`
	Summary  string                `json:"summary,omitempty"`
}

type forecastResponse struct {
	models.Forecast
	Text string `json:"text"`
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.KPIs(), cacheHeaders)
}

func (h *APIHandlers) HandleQuality(w http.ResponseWriter, r *http.Request) {
	q := h.dashboard.Quality()
	resp := qualityResponse{
		OK:       q.OK(),
		Issues:   q.Issues,
		Messages: q.Messages(),
	}
	if resp.OK {
		resp.Summary = models.NoQualityIssues
	}
	errors.WriteSuccessWithHeaders(w, resp, cacheHeaders)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), cacheHeaders)
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	if vm, ok := h.view(w, r); ok {
		errors.WriteSuccessWithHeaders(w, vm.Monthly, cacheHeaders)
	}
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if vm, ok := h.view(w, r); ok {
		errors.WriteSuccessWithHeaders(w, vm.Categories, cacheHeaders)
	}
}

func (h *APIHandlers) HandleDiscountProfit(w http.ResponseWriter, r *http.Request) {
	if vm, ok := h.view(w, r); ok {
		errors.WriteSuccessWithHeaders(w, vm.DiscountProfit, cacheHeaders)
	}
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if vm, ok := h.view(w, r); ok {
		errors.WriteSuccessWithHeaders(w, forecastResponse{
			Forecast: vm.Forecast,
			Text:     models.ForecastText(vm.Forecast),
		}, cacheHeaders)
	}
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	if vm, ok := h.view(w, r); ok {
		errors.WriteSuccessWithHeaders(w, vm, cacheHeaders)
	}
}

// view parses the selection from the query and recomputes. On invalid input
// it writes the error response and reports false.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (models.ViewModel, bool) {
	sel, appErr := selectionFromQuery(r.URL.Query()).parse()
	if appErr != nil {
		errors.WriteError(w, h.logger, appErr, observability.GetRequestID(r.Context()))
		return models.ViewModel{}, false
	}
	return h.dashboard.View(r.Context(), sel), true
}

// HandleNotFound answers unknown /api/ paths with a JSON envelope rather
// than the mux's plain-text 404.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, h.logger, errors.NotFound("no API endpoint at "+r.URL.Path),
		observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"rows":      h.dashboard.Table().Len(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}

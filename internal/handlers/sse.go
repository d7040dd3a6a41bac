package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-insights/internal/services"
	"sales-insights/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// HandleDashboard recomputes the filtered view for the page's current filter
// signals and patches the charts, forecast, row count and category table.
// Invalid filters only patch the error list; the last good view stays.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	in, readErr := selectionFromRequest(r)
	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.logger.WarnContext(r.Context(), "read filter signals", "error", readErr)
		h.patch(r.Context(), sse, templates.FilterErrors(map[string]string{"signals": "could not be read"}))
		return
	}

	sel, appErr := in.parse()
	if appErr != nil {
		h.patch(r.Context(), sse, templates.FilterErrors(appErr.Fields))
		return
	}

	vm := h.dashboard.View(r.Context(), sel)

	signals, err := json.Marshal(templates.ChartSignals(vm))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "marshal chart signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.WarnContext(r.Context(), "patch chart signals", "error", err)
		return
	}

	h.patch(r.Context(), sse,
		templates.FilterErrors(nil),
		templates.RowCount(vm.FilteredRows, vm.KPIs.Rows),
		templates.Forecast(vm.Forecast),
		templates.CategoryTable(vm.Categories),
	)
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r.Context(), sse, templates.KPICards(h.dashboard.KPIs()))
}

func (h *SSEHandlers) HandleQuality(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r.Context(), sse, templates.QualityPanel(h.dashboard.Quality()))
}

// patch renders each fragment and sends it as its own element patch; the
// fragments carry the ids they replace.
func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, fragments ...templ.Component) {
	var buf strings.Builder
	for _, c := range fragments {
		buf.Reset()
		if err := c.Render(ctx, &buf); err != nil {
			h.logger.ErrorContext(ctx, "render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(buf.String()); err != nil {
			h.logger.WarnContext(ctx, "patch elements", "error", err)
			return
		}
	}
}

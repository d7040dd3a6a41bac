package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sales-insights/internal/models"
)

// Render runs the whole pipeline for one selection. KPIs, quality and filter
// options describe the full table; the charts and forecast describe the
// filtered view.
func Render(table *models.SalesTable, sel models.FilterSelection) models.ViewModel {
	return renderFiltered(table, sel, models.ViewModel{
		Options: BuildFilterOptions(table),
		KPIs:    ComputeKPIs(table),
		Quality: CheckQuality(table),
	})
}

func renderFiltered(table *models.SalesTable, sel models.FilterSelection, vm models.ViewModel) models.ViewModel {
	filtered := ApplyFilter(table, sel)
	monthly := MonthlySummary(filtered)

	vm.Selection = sel
	vm.Monthly = monthly
	vm.Categories = CategorySummary(filtered)
	vm.DiscountProfit = DiscountProfit(filtered)
	vm.Forecast = Forecast(monthly)
	vm.FilteredRows = filtered.Len()
	return vm
}

// Recorder receives one observation per dashboard recomputation.
type Recorder interface {
	ObserveRender(d time.Duration, filteredRows int)
}

type Option func(*Dashboard)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) { d.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dashboard) { d.recorder = r }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dashboard) { d.tracer = t }
}

// Dashboard serves views over one loaded table. The selection-independent
// parts are computed once in NewDashboard; every View call recomputes the
// filtered part from scratch.
type Dashboard struct {
	table    *models.SalesTable
	kpis     models.KPIs
	quality  models.QualityReport
	options  models.FilterOptions
	loadedAt time.Time
	views    atomic.Int64

	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

func NewDashboard(table *models.SalesTable, opts ...Option) *Dashboard {
	d := &Dashboard{
		table:    table,
		kpis:     ComputeKPIs(table),
		quality:  CheckQuality(table),
		options:  BuildFilterOptions(table),
		loadedAt: time.Now(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("sales-insights/services"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dashboard) View(ctx context.Context, sel models.FilterSelection) models.ViewModel {
	_, span := d.tracer.Start(ctx, "dashboard.view", trace.WithAttributes(
		attribute.Int("selection.regions", len(sel.Regions)),
		attribute.Int("selection.categories", len(sel.Categories)),
	))
	defer span.End()

	start := time.Now()
	vm := renderFiltered(d.table, sel, models.ViewModel{
		Options: d.options,
		KPIs:    d.kpis,
		Quality: d.quality,
	})
	elapsed := time.Since(start)

	d.views.Add(1)
	span.SetAttributes(attribute.Int("rows.filtered", vm.FilteredRows))
	if d.recorder != nil {
		d.recorder.ObserveRender(elapsed, vm.FilteredRows)
	}
	d.logger.DebugContext(ctx, "dashboard recomputed",
		"filtered_rows", vm.FilteredRows,
		"months", len(vm.Monthly),
		"duration", elapsed,
	)
	return vm
}

// DefaultView is the view with every filter option selected.
func (d *Dashboard) DefaultView(ctx context.Context) models.ViewModel {
	return d.View(ctx, FullSelection(d.options))
}

func (d *Dashboard) KPIs() models.KPIs {
	return d.kpis
}

func (d *Dashboard) Quality() models.QualityReport {
	return d.quality
}

func (d *Dashboard) Options() models.FilterOptions {
	return d.options
}

func (d *Dashboard) Table() *models.SalesTable {
	return d.table
}

// Stats is a monitoring snapshot for the admin endpoint.
func (d *Dashboard) Stats() map[string]any {
	return map[string]any{
		"source":         d.table.Source(),
		"record_count":   d.table.Len(),
		"loaded_at":      d.loadedAt,
		"regions":        len(d.options.Regions),
		"categories":     len(d.options.Categories),
		"quality_issues": len(d.quality.Issues),
		"views_served":   d.views.Load(),
	}
}

package templates

import (
	"time"

	"sales-insights/internal/models"
)

// SeriesData is the label/value layout the page's Chart.js code expects.
type SeriesData struct {
	Labels  []string  `json:"labels"`
	Revenue []float64 `json:"revenue"`
	Profit  []float64 `json:"profit"`
}

type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartSignals shapes a view into the signals bound to the three charts.
func ChartSignals(vm models.ViewModel) map[string]any {
	monthly := SeriesData{
		Labels:  make([]string, 0, len(vm.Monthly)),
		Revenue: make([]float64, 0, len(vm.Monthly)),
		Profit:  make([]float64, 0, len(vm.Monthly)),
	}
	for _, m := range vm.Monthly {
		monthly.Labels = append(monthly.Labels, m.Month.Format("2006-01"))
		monthly.Revenue = append(monthly.Revenue, m.Revenue)
		monthly.Profit = append(monthly.Profit, m.Profit)
	}

	categories := SeriesData{
		Labels:  make([]string, 0, len(vm.Categories)),
		Revenue: make([]float64, 0, len(vm.Categories)),
		Profit:  make([]float64, 0, len(vm.Categories)),
	}
	for _, c := range vm.Categories {
		categories.Labels = append(categories.Labels, c.Category)
		categories.Revenue = append(categories.Revenue, c.Revenue)
		categories.Profit = append(categories.Profit, c.Profit)
	}

	scatter := make([]ScatterPoint, 0, len(vm.DiscountProfit))
	for _, p := range vm.DiscountProfit {
		scatter = append(scatter, ScatterPoint{X: p.Discount, Y: p.Profit})
	}

	return map[string]any{
		"monthlyData":  monthly,
		"categoryData": categories,
		"scatterData":  scatter,
	}
}

// SelectionSignals mirrors a selection into the filter-control signals.
func SelectionSignals(sel models.FilterSelection) map[string]any {
	return map[string]any{
		"regions":    nonNil(sel.Regions),
		"categories": nonNil(sel.Categories),
		"start":      formatDay(sel.Start),
		"end":        formatDay(sel.End),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

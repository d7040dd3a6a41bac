// Package templates renders the dashboard page and the fragments the SSE
// handlers patch into it.
package templates

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"maps"
	"time"

	"github.com/a-h/templ"

	"sales-insights/internal/models"
)

// DatastarURL is the client bundle the page loads. Its attribute syntax
// must match the datastar-go version in go.mod.
const DatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

const ChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"

//go:embed *.html
var files embed.FS

var tmpl = template.Must(template.New("ui").Funcs(template.FuncMap{
	"currency":     models.FormatCurrency,
	"percent":      models.FormatPercent,
	"forecastText": models.ForecastText,
	"noIssues":     func() string { return models.NoQualityIssues },
	"day": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(models.DateLayout)
	},
	"selected": func(value string, chosen []string) bool {
		for _, c := range chosen {
			if c == value {
				return true
			}
		}
		return false
	},
}).ParseFS(files, "*.html"))

type pageData struct {
	Source     string
	VM         models.ViewModel
	Signals    string
	DatastarJS string
	ChartJS    string
	Rows       rowCount
	Errors     map[string]string
}

type rowCount struct {
	Filtered int
	Total    int
}

// Dashboard is the full page for vm. The page's signals start out as vm's
// selection and chart data, so it renders complete before any SSE update.
func Dashboard(source string, vm models.ViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals := SelectionSignals(vm.Selection)
		maps.Copy(signals, ChartSignals(vm))
		encoded, err := json.Marshal(signals)
		if err != nil {
			return fmt.Errorf("encode page signals: %w", err)
		}

		return tmpl.ExecuteTemplate(w, "dashboard", pageData{
			Source:     source,
			VM:         vm,
			Signals:    string(encoded),
			DatastarJS: DatastarURL,
			ChartJS:    ChartJSURL,
			Rows:       rowCount{Filtered: vm.FilteredRows, Total: vm.KPIs.Rows},
		})
	})
}

func KPICards(k models.KPIs) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("kpi-cards"), k)
}

func QualityPanel(q models.QualityReport) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("quality-panel"), q)
}

func Forecast(f models.Forecast) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("forecast"), f)
}

func RowCount(filtered, total int) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("row-count"), rowCount{Filtered: filtered, Total: total})
}

func CategoryTable(rows []models.CategorySummary) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("category-table"), rows)
}

// FilterErrors lists invalid filter inputs by name; an empty map clears it.
func FilterErrors(fields map[string]string) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("filter-errors"), fields)
}

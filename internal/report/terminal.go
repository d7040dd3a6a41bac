// Package report renders a dashboard view outside the browser: as terminal
// tables for salesctl, or as CSV, JSON and PDF files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"sales-insights/internal/models"
)

const barWidth = 30

var (
	heading = color.New(color.FgCyan, color.Bold)
	warning = color.New(color.FgYellow, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
)

type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render prints every dashboard section in page order.
func (t *Terminal) Render(source string, vm models.ViewModel) error {
	heading.Fprintf(t.w, "Sales insights: %s\n", source)
	fmt.Fprintf(t.w, "Showing %d of %d rows\n\n", vm.FilteredRows, vm.KPIs.Rows)

	if err := t.KPIs(vm.KPIs); err != nil {
		return err
	}
	t.Quality(vm.Quality)

	if err := t.Monthly(vm.Monthly); err != nil {
		return err
	}
	if err := t.Categories(vm.Categories); err != nil {
		return err
	}

	heading.Fprintln(t.w, "Forecast")
	fmt.Fprintln(t.w, models.ForecastText(vm.Forecast))
	return nil
}

func (t *Terminal) KPIs(k models.KPIs) error {
	data := pterm.TableData{
		{"Total Sales", "Total Profit", "Margin %", "Avg Order Value"},
		{
			models.FormatCurrency(k.TotalSales),
			models.FormatCurrency(k.TotalProfit),
			models.FormatPercent(k.MarginPct),
			models.FormatCurrency(k.AvgOrderValue),
		},
	}
	return t.table("Key figures", data)
}

// Quality prints one warning line per failed check, or the all-clear line.
func (t *Terminal) Quality(q models.QualityReport) {
	heading.Fprintln(t.w, "Data quality")
	if q.OK() {
		success.Fprintln(t.w, "✓ "+models.NoQualityIssues)
		fmt.Fprintln(t.w)
		return
	}
	for _, issue := range q.Issues {
		warning.Fprintf(t.w, "⚠ %s", issue.Message)
		fmt.Fprintf(t.w, " (%d rows)\n", issue.Rows)
	}
	fmt.Fprintln(t.w)
}

// Monthly draws revenue bars scaled to the best month.
func (t *Terminal) Monthly(rows []models.MonthlySummary) error {
	if len(rows) == 0 {
		heading.Fprintln(t.w, "Monthly revenue & profit")
		fmt.Fprintln(t.w, "No rows match the current filters.")
		fmt.Fprintln(t.w)
		return nil
	}

	var peak float64
	for _, m := range rows {
		peak = max(peak, m.Revenue)
	}

	data := pterm.TableData{{"Month", "Revenue", "Profit", ""}}
	for _, m := range rows {
		bar := ""
		if peak > 0 && m.Revenue > 0 {
			bar = strings.Repeat("█", max(1, int(m.Revenue/peak*barWidth)))
		}
		profit := models.FormatCurrency(m.Profit)
		if m.Profit < 0 {
			profit = pterm.FgRed.Sprint(profit)
		}
		data = append(data, []string{
			m.Month.Format("2006-01"),
			models.FormatCurrency(m.Revenue),
			profit,
			pterm.FgBlue.Sprint(bar),
		})
	}
	return t.table("Monthly revenue & profit", data)
}

func (t *Terminal) Categories(rows []models.CategorySummary) error {
	data := pterm.TableData{{"Category", "Revenue", "Profit"}}
	for _, c := range rows {
		data = append(data, []string{
			c.Category,
			models.FormatCurrency(c.Revenue),
			models.FormatCurrency(c.Profit),
		})
	}
	if len(rows) == 0 {
		data = append(data, []string{"No rows match the current filters.", "", ""})
	}
	return t.table("Category performance", data)
}

func (t *Terminal) table(title string, data pterm.TableData) error {
	rendered, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("render %s table: %w", title, err)
	}

	heading.Fprintln(t.w, title)
	fmt.Fprintln(t.w, rendered)
	return nil
}

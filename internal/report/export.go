package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/sync/errgroup"

	"sales-insights/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormats accepts names like "csv", " PDF " and drops duplicates,
// keeping first-seen order.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case FormatCSV, FormatJSON, FormatPDF:
		default:
			return nil, fmt.Errorf("unsupported report type %q (want csv, json or pdf)", name)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no report type given")
	}
	return out, nil
}

// Document is everything an export writes: the view plus where it came from.
type Document struct {
	Source      string           `json:"source"`
	GeneratedAt time.Time        `json:"generated_at"`
	View        models.ViewModel `json:"view"`
}

type Exporter struct {
	Dir  string
	Name string
	now  func() time.Time
}

func NewExporter(dir, name string) *Exporter {
	if name == "" {
		name = "sales_report"
	}
	return &Exporter{Dir: dir, Name: name, now: time.Now}
}

// Export writes one file per format concurrently and returns their absolute
// paths in the order the formats were given.
func (e *Exporter) Export(ctx context.Context, source string, vm models.ViewModel, formats []Format) ([]string, error) {
	dir := e.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}

	now := e.now()
	doc := Document{Source: source, GeneratedAt: now.UTC(), View: vm}
	base := filepath.Join(dir, fmt.Sprintf("%s_%s", e.Name, now.Format("20060102_150405")))

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := base + "." + string(f)
			var err error
			switch f {
			case FormatCSV:
				err = writeCSV(path, doc)
			case FormatJSON:
				err = writeJSON(path, doc)
			case FormatPDF:
				err = writePDF(path, doc)
			default:
				err = fmt.Errorf("unsupported report type %q", f)
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			paths[i] = abs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// writeCSV lays the summaries out as section,label,metric,value rows, one
// metric per row, so one file can hold every table.
func writeCSV(path string, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	k := doc.View.KPIs
	rows := [][]string{
		{"section", "label", "metric", "value"},
		{"kpi", "total", "revenue", money(k.TotalSales)},
		{"kpi", "total", "profit", money(k.TotalProfit)},
		{"kpi", "avg_order_value", "revenue", money(k.AvgOrderValue)},
		{"kpi", "margin_pct", "percent", strconv.FormatFloat(k.MarginPct, 'f', 1, 64)},
	}
	for _, issue := range doc.View.Quality.Issues {
		rows = append(rows, []string{"quality", issue.Message, "rows", strconv.Itoa(issue.Rows)})
	}
	for _, m := range doc.View.Monthly {
		label := m.Month.Format("2006-01")
		rows = append(rows,
			[]string{"monthly", label, "revenue", money(m.Revenue)},
			[]string{"monthly", label, "profit", money(m.Profit)})
	}
	for _, c := range doc.View.Categories {
		rows = append(rows,
			[]string{"category", c.Category, "revenue", money(c.Revenue)},
			[]string{"category", c.Category, "profit", money(c.Profit)})
	}
	if f := doc.View.Forecast; f.Sufficient {
		rows = append(rows, []string{"forecast", "next_month", "revenue", money(f.Projected)})
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}
	return file.Close()
}

func writeJSON(path string, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return file.Close()
}

func writePDF(path string, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	vm := doc.View

	section := func(title string) {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(50, 50, 50)
	}

	table := func(header []string, rows [][]string) {
		width := 190.0 / float64(len(header))
		pdf.SetFont("Arial", "B", 10)
		for _, h := range header {
			pdf.CellFormat(width, 7, tr(h), "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, row := range rows {
			for _, cell := range row {
				pdf.CellFormat(width, 6, tr(cell), "", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	pdf.AddPage()
	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Sales insights"), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("  %s  |  %d of %d rows  |  %s",
		doc.Source, vm.FilteredRows, vm.KPIs.Rows, doc.GeneratedAt.Format(time.RFC1123))), "", 1, "L", true, 0, "")

	section("Key figures")
	table([]string{"Total Sales", "Total Profit", "Margin %", "Avg Order Value"}, [][]string{{
		models.FormatCurrency(vm.KPIs.TotalSales),
		models.FormatCurrency(vm.KPIs.TotalProfit),
		models.FormatPercent(vm.KPIs.MarginPct),
		models.FormatCurrency(vm.KPIs.AvgOrderValue),
	}})

	section("Data quality")
	if vm.Quality.OK() {
		pdf.MultiCell(190, 5, tr(models.NoQualityIssues), "", "L", false)
	} else {
		pdf.SetTextColor(192, 0, 0)
		for _, issue := range vm.Quality.Issues {
			pdf.MultiCell(190, 5, tr(fmt.Sprintf("%s (%d rows)", issue.Message, issue.Rows)), "", "L", false)
		}
	}

	section("Monthly revenue & profit")
	monthly := make([][]string, 0, len(vm.Monthly))
	for _, m := range vm.Monthly {
		monthly = append(monthly, []string{m.Month.Format("2006-01"), models.FormatCurrency(m.Revenue), models.FormatCurrency(m.Profit)})
	}
	table([]string{"Month", "Revenue", "Profit"}, monthly)

	section("Category performance")
	categories := make([][]string, 0, len(vm.Categories))
	for _, c := range vm.Categories {
		categories = append(categories, []string{c.Category, models.FormatCurrency(c.Revenue), models.FormatCurrency(c.Profit)})
	}
	table([]string{"Category", "Revenue", "Profit"}, categories)

	section("Forecast")
	pdf.MultiCell(190, 5, tr(models.ForecastText(vm.Forecast)), "", "L", false)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("error writing PDF file: %w", err)
	}
	return nil
}

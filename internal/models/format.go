package models

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// FormatCurrency renders a whole-pound amount with thousands separators, e.g. £12,345.
func FormatCurrency(v float64) string {
	return "£" + printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatPercent renders a percentage with one decimal, e.g. 12.3%.
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

// ForecastText is the one-line forecast shown under the charts.
func ForecastText(f Forecast) string {
	if !f.Sufficient {
		return "Not enough months for a forecast."
	}
	return "Projected next-month revenue (naive): " + FormatCurrency(f.Projected)
}

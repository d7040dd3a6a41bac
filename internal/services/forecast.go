package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
)

// ForecastWindow is how many trailing months the naive forecast averages.
const ForecastWindow = 3

// Forecast projects next month's revenue as the mean of the last
// ForecastWindow monthly revenues. Fewer months yield an insufficient result.
func Forecast(monthly []models.MonthlySummary) models.Forecast {
	if len(monthly) < ForecastWindow {
		return models.Forecast{Window: ForecastWindow, Basis: []models.MonthlySummary{}}
	}

	basis := slices.Clone(monthly[len(monthly)-ForecastWindow:])
	var sum decimal.Decimal
	for _, m := range basis {
		sum = sum.Add(decimal.NewFromFloat(m.Revenue))
	}

	return models.Forecast{
		Sufficient: true,
		Projected:  sum.Div(decimal.NewFromInt(ForecastWindow)).InexactFloat64(),
		Window:     ForecastWindow,
		Basis:      basis,
	}
}

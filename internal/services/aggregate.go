package services

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
)

type totals struct {
	revenue decimal.Decimal
	profit  decimal.Decimal
}

func (t *totals) add(rec models.SalesRecord) {
	t.revenue = t.revenue.Add(decimal.NewFromFloat(rec.Sales))
	t.profit = t.profit.Add(decimal.NewFromFloat(rec.Profit))
}

// MonthlySummary groups rows by the calendar month of their order date.
// Rows come back in ascending month order; months without orders are absent.
func MonthlySummary(table *models.SalesTable) []models.MonthlySummary {
	groups := make(map[time.Time]*totals)
	for _, rec := range table.All {
		month := models.FirstOfMonth(rec.OrderDate)
		g, ok := groups[month]
		if !ok {
			g = &totals{}
			groups[month] = g
		}
		g.add(rec)
	}

	result := make([]models.MonthlySummary, 0, len(groups))
	for month, g := range groups {
		result = append(result, models.MonthlySummary{
			Month:   month,
			Revenue: g.revenue.InexactFloat64(),
			Profit:  g.profit.InexactFloat64(),
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlySummary) int {
		return a.Month.Compare(b.Month)
	})
	return result
}

// CategorySummary returns one row per category present, sorted by name.
func CategorySummary(table *models.SalesTable) []models.CategorySummary {
	groups := make(map[string]*totals)
	for _, rec := range table.All {
		g, ok := groups[rec.Category]
		if !ok {
			g = &totals{}
			groups[rec.Category] = g
		}
		g.add(rec)
	}

	result := make([]models.CategorySummary, 0, len(groups))
	for category, g := range groups {
		result = append(result, models.CategorySummary{
			Category: category,
			Revenue:  g.revenue.InexactFloat64(),
			Profit:   g.profit.InexactFloat64(),
		})
	}
	slices.SortFunc(result, func(a, b models.CategorySummary) int {
		return strings.Compare(a.Category, b.Category)
	})
	return result
}

// DiscountProfit projects each row to its (discount, profit) pair.
func DiscountProfit(table *models.SalesTable) []models.DiscountProfitPoint {
	points := make([]models.DiscountProfitPoint, 0, table.Len())
	for _, rec := range table.All {
		points = append(points, models.DiscountProfitPoint{
			Discount: rec.Discount,
			Profit:   rec.Profit,
		})
	}
	return points
}

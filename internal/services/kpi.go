package services

import (
	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeKPIs summarises the whole table. Average order value is the mean of
// per-order sales totals, not the mean of row sales.
func ComputeKPIs(table *models.SalesTable) models.KPIs {
	var sales, profit decimal.Decimal
	orderTotals := make(map[string]decimal.Decimal)

	for _, rec := range table.All {
		amount := decimal.NewFromFloat(rec.Sales)
		sales = sales.Add(amount)
		profit = profit.Add(decimal.NewFromFloat(rec.Profit))
		orderTotals[rec.OrderID] = orderTotals[rec.OrderID].Add(amount)
	}

	kpis := models.KPIs{
		TotalSales:  sales.InexactFloat64(),
		TotalProfit: profit.InexactFloat64(),
		Orders:      len(orderTotals),
		Rows:        table.Len(),
	}

	if !sales.IsZero() {
		kpis.MarginPct = profit.Div(sales).Mul(hundred).InexactFloat64()
	}

	if len(orderTotals) > 0 {
		var sum decimal.Decimal
		for _, total := range orderTotals {
			sum = sum.Add(total)
		}
		kpis.AvgOrderValue = sum.Div(decimal.NewFromInt(int64(len(orderTotals)))).InexactFloat64()
	}

	return kpis
}

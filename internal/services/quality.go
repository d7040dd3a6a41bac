package services

import "sales-insights/internal/models"

type qualityCheck struct {
	code    models.QualityCode
	message string
	failed  func(models.SalesRecord) bool
}

// qualityChecks run in this order, and issues are reported in this order.
var qualityChecks = []qualityCheck{
	{
		code:    models.QualityNegativeSales,
		message: "Negative Sales detected.",
		failed:  func(r models.SalesRecord) bool { return r.Sales < 0 },
	},
	{
		code:    models.QualityDiscountRange,
		message: "Discount outside [0,1].",
		failed:  func(r models.SalesRecord) bool { return r.Discount < 0 || r.Discount > 1 },
	},
	{
		code:    models.QualityDateOrder,
		message: "Ship Date earlier than Order Date.",
		failed:  func(r models.SalesRecord) bool { return r.OrderDate.After(r.ShipDate) },
	},
}

// CheckQuality reports each failed check once, however many rows fail it.
// Violations are only reported; the table is left as loaded.
func CheckQuality(table *models.SalesTable) models.QualityReport {
	counts := make([]int, len(qualityChecks))
	for _, rec := range table.All {
		for i, check := range qualityChecks {
			if check.failed(rec) {
				counts[i]++
			}
		}
	}

	report := models.QualityReport{Issues: []models.QualityIssue{}}
	for i, check := range qualityChecks {
		if counts[i] == 0 {
			continue
		}
		report.Issues = append(report.Issues, models.QualityIssue{
			Code:    check.code,
			Message: check.message,
			Rows:    counts[i],
		})
	}
	return report
}

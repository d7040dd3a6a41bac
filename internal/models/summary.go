package models

import "time"

type MonthlySummary struct {
	Month   time.Time `json:"month"`
	Revenue float64   `json:"revenue"`
	Profit  float64   `json:"profit"`
}

type CategorySummary struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Profit   float64 `json:"profit"`
}

type DiscountProfitPoint struct {
	Discount float64 `json:"discount"`
	Profit   float64 `json:"profit"`
}

type KPIs struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	MarginPct     float64 `json:"margin_pct"`
	AvgOrderValue float64 `json:"avg_order_value"`
	Orders        int     `json:"orders"`
	Rows          int     `json:"rows"`
}

// QualityCode identifies one of the fixed data-quality predicates.
type QualityCode string

const (
	QualityNegativeSales QualityCode = "negative-sales"
	QualityDiscountRange QualityCode = "discount-range"
	QualityDateOrder     QualityCode = "date-order"
)

const NoQualityIssues = "No issues detected in basic checks."

type QualityIssue struct {
	Code    QualityCode `json:"code"`
	Message string      `json:"message"`
	Rows    int         `json:"rows"`
}

type QualityReport struct {
	Issues []QualityIssue `json:"issues"`
}

func (q QualityReport) OK() bool {
	return len(q.Issues) == 0
}

// Messages returns the human-readable issue strings in check order.
func (q QualityReport) Messages() []string {
	msgs := make([]string, 0, len(q.Issues))
	for _, issue := range q.Issues {
		msgs = append(msgs, issue.Message)
	}
	return msgs
}

// Forecast is the naive next-month projection. Sufficient is false when the
// monthly series is too short to average.
type Forecast struct {
	Sufficient bool             `json:"sufficient"`
	Projected  float64          `json:"projected"`
	Window     int              `json:"window"`
	Basis      []MonthlySummary `json:"basis"`
}

type FilterOptions struct {
	Regions    []string  `json:"regions"`
	Categories []string  `json:"categories"`
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
}

// FilterSelection is the user's current choice of filters. Empty Regions or
// Categories mean no restriction; a zero Start or End leaves that side open.
type FilterSelection struct {
	Regions    []string  `json:"regions"`
	Categories []string  `json:"categories"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type ViewModel struct {
	Selection      FilterSelection       `json:"selection"`
	Options        FilterOptions         `json:"options"`
	KPIs           KPIs                  `json:"kpis"`
	Quality        QualityReport         `json:"quality"`
	Monthly        []MonthlySummary      `json:"monthly"`
	Categories     []CategorySummary     `json:"categories"`
	DiscountProfit []DiscountProfitPoint `json:"discount_profit"`
	Forecast       Forecast              `json:"forecast"`
	FilteredRows   int                   `json:"filtered_rows"`
}

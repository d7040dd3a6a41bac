package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sales-insights/internal/models"
)

const (
	ColOrderID   = "Order ID"
	ColOrderDate = "Order Date"
	ColShipDate  = "Ship Date"
	ColRegion    = "Region"
	ColCategory  = "Category"
	ColSales     = "Sales"
	ColProfit    = "Profit"
	ColDiscount  = "Discount"
)

// RequiredColumns lists the header names every tabular source must carry.
var RequiredColumns = []string{
	ColOrderID, ColOrderDate, ColShipDate, ColRegion,
	ColCategory, ColSales, ColProfit, ColDiscount,
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// columnIndex maps required column names to their position in a header row.
type columnIndex map[string]int

func indexHeader(source string, header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &LoadError{Source: source, Kind: ErrMissingColumn, Column: col}
		}
	}
	return idx, nil
}

// parseRow converts one data row. row is the 1-based data row number used in
// errors. serialDates also accepts spreadsheet serial numbers in date columns.
func (c columnIndex) parseRow(source string, row int, fields []string, serialDates bool) (models.SalesRecord, error) {
	get := func(col string) string {
		i := c[col]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rowErr := func(col string, err error) error {
		return &LoadError{Source: source, Kind: ErrMalformed, Row: row, Column: col, Err: err}
	}

	var rec models.SalesRecord
	var err error

	rec.OrderID = get(ColOrderID)
	if rec.OrderID == "" {
		return rec, rowErr(ColOrderID, fmt.Errorf("empty value"))
	}
	if rec.OrderDate, err = parseDate(get(ColOrderDate), serialDates); err != nil {
		return rec, rowErr(ColOrderDate, err)
	}
	if rec.ShipDate, err = parseDate(get(ColShipDate), serialDates); err != nil {
		return rec, rowErr(ColShipDate, err)
	}
	rec.Region = get(ColRegion)
	if rec.Region == "" {
		return rec, rowErr(ColRegion, fmt.Errorf("empty value"))
	}
	rec.Category = get(ColCategory)
	if rec.Category == "" {
		return rec, rowErr(ColCategory, fmt.Errorf("empty value"))
	}
	if rec.Sales, err = parseNumber(get(ColSales)); err != nil {
		return rec, rowErr(ColSales, err)
	}
	if rec.Profit, err = parseNumber(get(ColProfit)); err != nil {
		return rec, rowErr(ColProfit, err)
	}
	if rec.Discount, err = parseNumber(get(ColDiscount)); err != nil {
		return rec, rowErr(ColDiscount, err)
	}
	return rec, nil
}

// Serials accepted from date-formatted cells: 1901-01-01 through 9999-12-31.
const (
	minDateSerial = 367
	maxDateSerial = 2958465
)

func parseDate(s string, serialDates bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.CalendarDay(t), nil
		}
	}
	if !serialDates {
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	if serial < minDateSerial || serial >= maxDateSerial+1 {
		return time.Time{}, fmt.Errorf("date serial %s out of range", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("date serial %s: %w", s, err)
	}
	return models.CalendarDay(t), nil
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

package models

import (
	"slices"
	"time"
)

// DateLayout is the calendar-date format used in URLs, signals and exports.
const DateLayout = "2006-01-02"

// SalesRecord is one row of the sales dataset.
type SalesRecord struct {
	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
	ShipDate  time.Time `json:"ship_date"`
	Region    string    `json:"region"`
	Category  string    `json:"category"`
	Sales     float64   `json:"sales"`
	Profit    float64   `json:"profit"`
	Discount  float64   `json:"discount"`
}

// SalesTable is an ordered, read-only sequence of records. It is built once
// by the loader and shared by every request; nothing mutates it afterwards.
type SalesTable struct {
	source  string
	records []SalesRecord
}

func NewSalesTable(source string, records []SalesRecord) *SalesTable {
	return &SalesTable{
		source:  source,
		records: slices.Clone(records),
	}
}

func (t *SalesTable) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the i-th record by value.
func (t *SalesTable) At(i int) SalesRecord {
	return t.records[i]
}

// All iterates the records in table order.
func (t *SalesTable) All(yield func(int, SalesRecord) bool) {
	if t == nil {
		return
	}
	for i, r := range t.records {
		if !yield(i, r) {
			return
		}
	}
}

// Records returns a copy of the rows.
func (t *SalesTable) Records() []SalesRecord {
	if t == nil {
		return []SalesRecord{}
	}
	return slices.Clone(t.records)
}

// FirstOfMonth truncates a date to the first day of its calendar month (UTC).
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CalendarDay drops the clock part of t, keeping its calendar date in UTC.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package services

import (
	"slices"
	"time"

	"sales-insights/internal/models"
)

// ApplyFilter returns the rows matching every active criterion, in table
// order. The input table is not modified.
func ApplyFilter(table *models.SalesTable, sel models.FilterSelection) *models.SalesTable {
	regions := toSet(sel.Regions)
	categories := toSet(sel.Categories)
	start, end := dayBounds(sel)

	matched := make([]models.SalesRecord, 0, table.Len())
	for _, rec := range table.All {
		if regions != nil && !regions[rec.Region] {
			continue
		}
		if categories != nil && !categories[rec.Category] {
			continue
		}
		day := models.CalendarDay(rec.OrderDate)
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		matched = append(matched, rec)
	}

	return models.NewSalesTable(table.Source(), matched)
}

// BuildFilterOptions lists the choices offered by the filter controls: the
// distinct regions and categories (sorted) and the order-date range.
func BuildFilterOptions(table *models.SalesTable) models.FilterOptions {
	regions := make(map[string]struct{})
	categories := make(map[string]struct{})
	var minDate, maxDate time.Time

	for i, rec := range table.All {
		regions[rec.Region] = struct{}{}
		categories[rec.Category] = struct{}{}
		day := models.CalendarDay(rec.OrderDate)
		if i == 0 || day.Before(minDate) {
			minDate = day
		}
		if i == 0 || day.After(maxDate) {
			maxDate = day
		}
	}

	return models.FilterOptions{
		Regions:    sortedKeys(regions),
		Categories: sortedKeys(categories),
		MinDate:    minDate,
		MaxDate:    maxDate,
	}
}

// FullSelection selects everything the options offer. Applying it returns
// the whole table.
func FullSelection(opts models.FilterOptions) models.FilterSelection {
	return models.FilterSelection{
		Regions:    slices.Clone(opts.Regions),
		Categories: slices.Clone(opts.Categories),
		Start:      opts.MinDate,
		End:        opts.MaxDate,
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func dayBounds(sel models.FilterSelection) (time.Time, time.Time) {
	var start, end time.Time
	if !sel.Start.IsZero() {
		start = models.CalendarDay(sel.Start)
	}
	if !sel.End.IsZero() {
		end = models.CalendarDay(sel.End)
	}
	return start, end
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"sales-insights/internal/models"
)

// loadXLSX reads the first sheet whose leading rows contain the required
// header. Cells are read raw so date columns arrive as serials or text.
func loadXLSX(ctx context.Context, path string) (*models.SalesTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newLoadError(path, ErrMissing, err)
		}
		return nil, newLoadError(path, ErrUnreadable, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, newLoadError(path, ErrMalformed, fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	var lastErr error
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			lastErr = err
			continue
		}

		headerRow := findHeaderRow(rows)
		if headerRow < 0 {
			continue
		}

		cols, err := indexHeader(path, rows[headerRow])
		if err != nil {
			return nil, err
		}

		records := make([]models.SalesRecord, 0, len(rows)-headerRow-1)
		for i, fields := range rows[headerRow+1:] {
			if blankRow(fields) {
				continue
			}
			rec, err := cols.parseRow(path, i+1, fields, true)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return models.NewSalesTable(path, records), nil
	}

	if lastErr != nil {
		return nil, newLoadError(path, ErrMalformed, lastErr)
	}
	return nil, &LoadError{Source: path, Kind: ErrMissingColumn, Column: ColOrderID,
		Err: fmt.Errorf("no sheet carries the sales header")}
}

// findHeaderRow looks for the header within the first few rows, since
// exported workbooks often put a title above the table.
func findHeaderRow(rows [][]string) int {
	limit := min(len(rows), 10)
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) == ColOrderID {
				return i
			}
		}
	}
	return -1
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

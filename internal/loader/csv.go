package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"sales-insights/internal/models"
)

func loadCSV(ctx context.Context, path string) (*models.SalesTable, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newLoadError(path, ErrMissing, err)
		}
		return nil, newLoadError(path, ErrUnreadable, err)
	}
	defer file.Close()

	return readCSV(ctx, path, file)
}

func readCSV(ctx context.Context, source string, r io.Reader) (*models.SalesTable, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, newLoadError(source, ErrMalformed, fmt.Errorf("empty file"))
	}
	if err != nil {
		return nil, newLoadError(source, ErrMalformed, err)
	}

	cols, err := indexHeader(source, header)
	if err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(header)

	records := make([]models.SalesRecord, 0, 1024)
	for row := 1; ; row++ {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Kind: ErrMalformed, Row: row, Err: err}
		}

		rec, err := cols.parseRow(source, row, fields, false)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return models.NewSalesTable(source, records), nil
}

var utf8BOM = []byte("\ufeff")

// skipBOM drops a leading UTF-8 byte order mark, which would otherwise make
// a quoted first header field invalid CSV.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

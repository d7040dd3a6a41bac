package loader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sales-insights/internal/models"
)

const DefaultTable = "sales"

func isPostgresURL(key string) bool {
	return strings.HasPrefix(key, "postgres://") || strings.HasPrefix(key, "postgresql://")
}

// loadPostgres reads every row of table. The dataset is read once, so a
// single connection is opened and closed again.
func loadPostgres(ctx context.Context, connStr, table string) (*models.SalesTable, error) {
	source := redactURL(connStr)
	if table == "" {
		table = DefaultTable
	}

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, newLoadError(source, ErrUnreadable, fmt.Errorf("connect: %w", err))
	}
	defer conn.Close(context.WithoutCancel(ctx))

	query := fmt.Sprintf(`
    SELECT order_id, order_date, ship_date, region, category,
           sales::float8, profit::float8, discount::float8
    FROM %s
    ORDER BY order_date, order_id`, pgx.Identifier(strings.Split(table, ".")).Sanitize())

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, newLoadError(source, queryErrorKind(err), fmt.Errorf("query %s: %w", table, err))
	}
	defer rows.Close()

	var records []models.SalesRecord
	for rows.Next() {
		var rec models.SalesRecord
		var orderDate, shipDate time.Time
		if err := rows.Scan(&rec.OrderID, &orderDate, &shipDate, &rec.Region, &rec.Category,
			&rec.Sales, &rec.Profit, &rec.Discount); err != nil {
			return nil, &LoadError{Source: source, Kind: ErrMalformed, Row: len(records) + 1, Err: err}
		}
		if !finite(rec.Sales, rec.Profit, rec.Discount) {
			return nil, &LoadError{Source: source, Kind: ErrMalformed, Row: len(records) + 1,
				Err: fmt.Errorf("non-finite amount in order %s", rec.OrderID)}
		}
		rec.OrderDate = models.CalendarDay(orderDate)
		rec.ShipDate = models.CalendarDay(shipDate)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newLoadError(source, ErrMalformed, err)
	}

	return models.NewSalesTable(source, records), nil
}

// SQLSTATEs for a table or column that does not exist.
const (
	sqlUndefinedTable  = "42P01"
	sqlUndefinedColumn = "42703"
)

// queryErrorKind separates a table that lacks the sales schema from a
// source that could not be read at all (permissions, timeouts, network).
func queryErrorKind(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlUndefinedTable, sqlUndefinedColumn:
			return ErrMissingColumn
		}
	}
	return ErrUnreadable
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// redactURL hides the password so connection strings can be logged.
func redactURL(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "postgres"
	}
	return u.Redacted()
}

package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"esales-dashboard/internal/models"
)

// SQLQuery treats the result set of a query as the input table. Column
// names go through the same normalization as CSV headers.
type SQLQuery struct {
	DB    *sql.DB
	Query string
	Label string
}

func (s SQLQuery) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "sql"
}

func (s SQLQuery) Read(ctx context.Context) ([]models.Record, error) {
	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, &DataLoadError{Source: s.Name(), Err: fmt.Errorf("query: %w", err)}
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, &DataLoadError{Source: s.Name(), Err: err}
	}

	values := make([]any, len(header))
	dest := make([]any, len(header))
	for i := range values {
		dest[i] = &values[i]
	}

	var table [][]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, &DataLoadError{Source: s.Name(), Row: len(table) + 1, Err: err}
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatSQLValue(v)
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataLoadError{Source: s.Name(), Err: err}
	}

	return Parse(ctx, s.Name(), header, table)
}

// OpenPostgres opens a pgx-backed database/sql handle and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func formatSQLValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return FormatTimestamp(x.UTC())
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

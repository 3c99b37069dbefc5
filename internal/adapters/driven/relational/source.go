// Package relational reads table rows through database/sql.
//
// Two drivers are registered: "pgx" for PostgreSQL and "sqlite" for local
// database files.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RowSource = (*Source)(nil)

// Supported driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// identifier matches a table name, optionally schema-qualified.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Source is a RowSource over a database/sql connection pool.
type Source struct {
	db *sql.DB
}

// Open opens a connection pool and pings it.
func Open(ctx context.Context, driver, dsn string) (*Source, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("relational driver %q: %w", driver, domain.ErrInvalidInput)
	}
	if dsn == "" {
		return nil, fmt.Errorf("relational DSN: %w", domain.ErrNotConfigured)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Source{db: db}, nil
}

// NewSource wraps an existing pool.
func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// Rows reads the whole table.
func (s *Source) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	quoted, err := QuoteTable(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", table, err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalise(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", table, err)
	}
	return out, nil
}

// Close closes the pool.
func (s *Source) Close() error {
	return s.db.Close()
}

// QuoteTable validates a table name and double-quotes each part.
func QuoteTable(table string) (string, error) {
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("table name %q: %w", table, domain.ErrInvalidInput)
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, "."), nil
}

// normalise maps driver values onto types a graph property can hold.
func normalise(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return fmt.Sprint(x)
	}
}

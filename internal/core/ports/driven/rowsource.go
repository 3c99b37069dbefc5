package driven

import "context"

// RowSource reads rows from a relational database.
type RowSource interface {
	// Rows returns every row of the table as column-name keyed maps.
	// Values are normalised to strings, numbers, booleans or nil.
	Rows(ctx context.Context, table string) ([]map[string]any, error)

	// Close releases the connection.
	Close() error
}

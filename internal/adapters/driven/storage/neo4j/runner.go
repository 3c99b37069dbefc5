package neo4j

import (
	"context"
	"fmt"
	"time"

	neo "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// connectTimeout bounds the connectivity check made by Open.
const connectTimeout = 10 * time.Second

// Record is one result row keyed by column name.
type Record map[string]any

// Runner executes Cypher and returns the collected rows. Store talks to the
// database only through a Runner so its statements can be recorded in tests.
type Runner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
	Close(ctx context.Context) error
}

// Config holds connection settings.
type Config struct {
	URI      string
	Username string
	Password string

	// Database is the target database; empty uses the server default.
	Database string
}

// DriverRunner is a Runner backed by the official Neo4j driver. Each call
// runs in its own managed transaction, so transient cluster errors are
// retried by the driver.
type DriverRunner struct {
	driver   neo.DriverWithContext
	database string
}

// Ensure DriverRunner implements the interface.
var _ Runner = (*DriverRunner)(nil)

// Open connects to the database and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*DriverRunner, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: URI is required")
	}

	auth := neo.NoAuth()
	if cfg.Username != "" {
		auth = neo.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: create driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: connect to %s: %w", cfg.URI, err)
	}

	return &DriverRunner{driver: driver, database: cfg.Database}, nil
}

// Read runs cypher in a read transaction.
func (r *DriverRunner) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return r.run(ctx, neo.AccessModeRead, cypher, params)
}

// Write runs cypher in a write transaction.
func (r *DriverRunner) Write(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return r.run(ctx, neo.AccessModeWrite, cypher, params)
}

func (r *DriverRunner) run(ctx context.Context, mode neo.AccessMode, cypher string, params map[string]any) ([]Record, error) {
	sess := r.driver.NewSession(ctx, neo.SessionConfig{
		DatabaseName: r.database,
		AccessMode:   mode,
	})
	defer func() { _ = sess.Close(ctx) }()

	work := func(tx neo.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		rows, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Record, len(rows))
		for i, row := range rows {
			rec := make(Record, len(row.Keys))
			for j, key := range row.Keys {
				rec[key] = row.Values[j]
			}
			out[i] = rec
		}
		return out, nil
	}

	var (
		result any
		err    error
	)
	if mode == neo.AccessModeRead {
		result, err = sess.ExecuteRead(ctx, work)
	} else {
		result, err = sess.ExecuteWrite(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	return result.([]Record), nil
}

// Close closes the driver.
func (r *DriverRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

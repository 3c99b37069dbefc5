package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestChunkSize is the number of rows written per CreateNodes call.
const IngestChunkSize = 500

// IngestService copies relational rows into the graph store. Embeddings are
// left unset for Backfill to complete.
type IngestService struct {
	store  driven.GraphStore
	source driven.RowSource
}

// NewIngestService creates an ingest service.
func NewIngestService(store driven.GraphStore, source driven.RowSource) *IngestService {
	return &IngestService{store: store, source: source}
}

// Ingest writes one node per row of each table, tagged with source_table.
// A failing table is logged and skipped.
func (s *IngestService) Ingest(
	ctx context.Context, profile domain.IndexProfile, tables []string, clear bool,
) (*domain.IngestSummary, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &domain.IngestSummary{
		RunID:  uuid.NewString(),
		Label:  profile.Label,
		Tables: len(tables),
	}
	defer func() { summary.Duration = time.Since(start) }()

	logger.Section("Ingest " + profile.Label)

	if clear {
		deleted, err := s.store.DeleteLabel(ctx, profile.Label)
		if err != nil {
			return summary, fmt.Errorf("delete %s nodes: %w", profile.Label, err)
		}
		logger.Info("Deleted %d existing %s nodes", deleted, profile.Label)
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rows, err := s.source.Rows(ctx, table)
		if err != nil {
			logger.Warn("table %s: read failed, skipping: %v", table, err)
			summary.TablesFailed = append(summary.TablesFailed, table)
			continue
		}
		summary.RowsRead += len(rows)

		created, err := s.writeTable(ctx, profile.Label, table, rows)
		summary.NodesCreated += created
		if err != nil {
			logger.Warn("table %s: write failed after %d nodes: %v", table, created, err)
			summary.TablesFailed = append(summary.TablesFailed, table)
			continue
		}
		logger.Info("table %s: %d rows, %d nodes", table, len(rows), created)
	}

	return summary, nil
}

func (s *IngestService) writeTable(ctx context.Context, label, table string, rows []map[string]any) (int, error) {
	created := 0
	for start := 0; start < len(rows); start += IngestChunkSize {
		end := min(start+IngestChunkSize, len(rows))

		chunk := make([]map[string]any, 0, end-start)
		for _, row := range rows[start:end] {
			props := make(map[string]any, len(row)+1)
			for k, v := range row {
				props[k] = v
			}
			props[domain.PropSourceTable] = table
			chunk = append(chunk, props)
		}

		n, err := s.store.CreateNodes(ctx, label, chunk)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

package driving

import (
	"context"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// RefreshService rebuilds the wiki generation in the store.
type RefreshService interface {
	// FullRefresh deletes the profile's label, ensures its indexes and
	// writes one node per crawled page. spaceKey restricts the crawl when set.
	// Per-page failures are counted in the summary. Index conflicts are returned.
	FullRefresh(ctx context.Context, spaceKey string) (*domain.RefreshSummary, error)
}

// BackfillService completes missing embeddings.
type BackfillService interface {
	// Backfill embeds every node of the profile whose embedding is unset.
	// batchCap <= 0 uses the configured default.
	Backfill(ctx context.Context, profile domain.IndexProfile, batchCap int) (*domain.BackfillSummary, error)
}

// IngestService writes relational rows as nodes without embeddings.
type IngestService interface {
	// Ingest reads each table and writes one node per row under the profile's label.
	// When clear is set the label is deleted first.
	Ingest(ctx context.Context, profile domain.IndexProfile, tables []string, clear bool) (*domain.IngestSummary, error)
}

// IndexService bootstraps and inspects the store's indexes.
type IndexService interface {
	// EnsureIndexes validates then creates the profile's indexes. A second
	// call is a no-op. With hybrid set the fulltext index is included.
	EnsureIndexes(ctx context.Context, profile domain.IndexProfile, hybrid bool) error

	// Validate checks existing indexes against the profile without creating any.
	Validate(ctx context.Context, profile domain.IndexProfile, hybrid bool) error

	// Indexes lists the store's indexes.
	Indexes(ctx context.Context) ([]domain.IndexInfo, error)

	// Constraints lists the store's constraints.
	Constraints(ctx context.Context) ([]domain.Constraint, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// SearchService answers queries against a profile's indexes.
type SearchService interface {
	// Similarity embeds the query and returns the k nearest nodes.
	Similarity(ctx context.Context, profile domain.IndexProfile, query string, k int) ([]domain.SearchHit, error)

	// Keyword runs the query against the fulltext index.
	Keyword(ctx context.Context, profile domain.IndexProfile, query string, k int) ([]domain.SearchHit, error)

	// Hybrid merges similarity and keyword results by normalised score.
	Hybrid(ctx context.Context, profile domain.IndexProfile, query string, k int) ([]domain.SearchHit, error)

	// Search dispatches on mode.
	Search(ctx context.Context, mode domain.SearchMode, profile domain.IndexProfile, query string, k int) ([]domain.SearchHit, error)
}

package mcp

import (
	"context"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	hits []domain.SearchHit
	err  error

	lastMode    domain.SearchMode
	lastProfile domain.IndexProfile
	lastQuery   string
	lastK       int
}

var _ driving.SearchService = (*mockSearchService)(nil)

func (m *mockSearchService) Search(
	_ context.Context, mode domain.SearchMode, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	m.lastMode, m.lastProfile, m.lastQuery, m.lastK = mode, profile, query, k
	return m.hits, m.err
}

func (m *mockSearchService) Similarity(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	return m.Search(ctx, domain.SearchModeVector, profile, query, k)
}

func (m *mockSearchService) Keyword(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	return m.Search(ctx, domain.SearchModeKeyword, profile, query, k)
}

func (m *mockSearchService) Hybrid(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	return m.Search(ctx, domain.SearchModeHybrid, profile, query, k)
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	indexes []domain.IndexInfo
	err     error
}

var _ driving.IndexService = (*mockIndexService)(nil)

func (m *mockIndexService) EnsureIndexes(context.Context, domain.IndexProfile, bool) error {
	return m.err
}

func (m *mockIndexService) Validate(context.Context, domain.IndexProfile, bool) error {
	return m.err
}

func (m *mockIndexService) Indexes(context.Context) ([]domain.IndexInfo, error) {
	return m.indexes, m.err
}

func (m *mockIndexService) Constraints(context.Context) ([]domain.Constraint, error) {
	return nil, m.err
}

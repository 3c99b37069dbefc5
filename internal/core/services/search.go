package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService queries a profile's vector and keyword indexes. Without an
// embedder only keyword search is available.
type SearchService struct {
	store    driven.GraphStore
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service. embedder may be nil.
func NewSearchService(store driven.GraphStore, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Search dispatches on mode.
func (s *SearchService) Search(
	ctx context.Context, mode domain.SearchMode, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	switch mode {
	case domain.SearchModeVector:
		return s.Similarity(ctx, profile, query, k)
	case domain.SearchModeKeyword:
		return s.Keyword(ctx, profile, query, k)
	case domain.SearchModeHybrid:
		return s.Hybrid(ctx, profile, query, k)
	default:
		return nil, fmt.Errorf("search mode %q: %w", mode, domain.ErrInvalidInput)
	}
}

// Similarity embeds the query and returns the k nearest nodes.
func (s *SearchService) Similarity(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	k, err := prepare(profile, query, k)
	if err != nil {
		return nil, err
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("vector search: query embedding %w", domain.ErrNotConfigured)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nodes, err := s.store.VectorSearch(ctx, profile.IndexName, vector, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("vector search %s: %d hits", profile.IndexName, len(nodes))
	return toHits(profile, nodes), nil
}

// Keyword escapes the query for Lucene and runs it against the fulltext index.
func (s *SearchService) Keyword(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	k, err := prepare(profile, query, k)
	if err != nil {
		return nil, err
	}

	nodes, err := s.store.KeywordSearch(ctx, profile.KeywordIndexName, EscapeLucene(query), k)
	if err != nil {
		return nil, err
	}
	logger.Debug("keyword search %s: %d hits", profile.KeywordIndexName, len(nodes))
	return toHits(profile, nodes), nil
}

// Hybrid runs both searches in parallel, scales each list by its top score,
// keeps the higher score for nodes found by both, and returns the best k.
// If one side fails the other side's results are used.
func (s *SearchService) Hybrid(
	ctx context.Context, profile domain.IndexProfile, query string, k int,
) ([]domain.SearchHit, error) {
	k, err := prepare(profile, query, k)
	if err != nil {
		return nil, err
	}

	var (
		wg                    sync.WaitGroup
		vectorHits, wordHits  []domain.SearchHit
		vectorErr, keywordErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = s.Similarity(ctx, profile, query, k)
	}()
	go func() {
		defer wg.Done()
		wordHits, keywordErr = s.Keyword(ctx, profile, query, k)
	}()
	wg.Wait()

	switch {
	case vectorErr != nil && keywordErr != nil:
		return nil, fmt.Errorf("hybrid search: vector=%w, keyword=%w", vectorErr, keywordErr)
	case vectorErr != nil:
		logger.Warn("Hybrid search: vector search failed, using keyword results only: %v", vectorErr)
	case keywordErr != nil:
		logger.Warn("Hybrid search: keyword search failed, using vector results only: %v", keywordErr)
	}

	return MergeHits(vectorHits, wordHits, k), nil
}

// MergeHits max-normalises each list, merges by element id keeping the
// larger score, and returns the top k by descending score. Equal scores are
// ordered by element id.
func MergeHits(a, b []domain.SearchHit, k int) []domain.SearchHit {
	merged := make(map[string]domain.SearchHit, len(a)+len(b))
	var order []string

	for _, list := range [][]domain.SearchHit{normalise(a), normalise(b)} {
		for _, hit := range list {
			prev, seen := merged[hit.ElementID]
			if !seen {
				order = append(order, hit.ElementID)
				merged[hit.ElementID] = hit
				continue
			}
			if hit.Score > prev.Score {
				merged[hit.ElementID] = hit
			}
		}
	}

	out := make([]domain.SearchHit, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ElementID < out[j].ElementID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func normalise(hits []domain.SearchHit) []domain.SearchHit {
	maxScore := 0.0
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	out := make([]domain.SearchHit, len(hits))
	for i, h := range hits {
		if maxScore > 0 {
			h.Score /= maxScore
		}
		out[i] = h
	}
	return out
}

// luceneSpecial lists characters with meaning in Lucene query syntax.
const luceneSpecial = `+-&|!(){}[]^"~*?:\/`

// EscapeLucene backslash-escapes Lucene operators so user text is matched
// literally.
func EscapeLucene(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if strings.ContainsRune(luceneSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func prepare(profile domain.IndexProfile, query string, k int) (int, error) {
	if err := profile.Validate(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(query) == "" {
		return 0, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = domain.DefaultSearchLimit
	}
	return k, nil
}

func toHits(profile domain.IndexProfile, nodes []domain.StoredNode) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(nodes))
	for _, n := range nodes {
		hits = append(hits, domain.SearchHit{
			ElementID: n.ElementID,
			Text:      profile.ComposeText(n.Properties),
			Metadata:  profile.Metadata(n.Properties),
			Score:     n.Score,
		})
	}
	return hits
}

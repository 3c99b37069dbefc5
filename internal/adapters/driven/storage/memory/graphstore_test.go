package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

func vectorSpec() driven.VectorIndexSpec {
	return driven.VectorIndexSpec{Name: "confluence_embedding", Label: "Confluence", Property: "embedding", Dimensions: 2}
}

func TestGraphStore_CreateIndexesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()

	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreateVectorIndex(ctx, vectorSpec()))
		require.NoError(t, store.CreateFulltextIndex(ctx, driven.FulltextIndexSpec{
			Name: "confluence_keyword", Label: "Confluence", Properties: []string{"text", "title"},
		}))
	}

	indexes, err := store.Indexes(ctx)
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, "confluence_embedding", indexes[0].Name)
	assert.Equal(t, "cosine", indexes[0].Similarity)
	assert.Equal(t, domain.IndexFulltext, indexes[1].Type)

	info, ok, err := store.VectorIndex(ctx, driven.IndexLookup{Name: "confluence_embedding"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, info.Dimensions)

	_, ok, err = store.FulltextIndex(ctx, driven.IndexLookup{Name: "confluence_embedding"})
	require.NoError(t, err)
	assert.False(t, ok, "type must match")
}

func TestGraphStore_IndexLookupBySchema(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	store.SeedIndex(domain.IndexInfo{
		Name:       "vector",
		Type:       domain.IndexVector,
		Labels:     []string{"Confluence"},
		Properties: []string{"embedding"},
		Dimensions: 768,
	})

	tests := []struct {
		name   string
		lookup driven.IndexLookup
		want   bool
	}{
		{"by name", driven.IndexLookup{Name: "vector"}, true},
		{"by label and property", driven.IndexLookup{Name: "confluence_embedding", Label: "Confluence", Properties: []string{"embedding"}}, true},
		{"other property", driven.IndexLookup{Name: "confluence_embedding", Label: "Confluence", Properties: []string{"vec"}}, false},
		{"other label", driven.IndexLookup{Name: "confluence_embedding", Label: "Postgres", Properties: []string{"embedding"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok, err := store.VectorIndex(ctx, tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "vector", info.Name)
			}
		})
	}
}

func TestGraphStore_CreateIndexRejectsIncompleteSpec(t *testing.T) {
	store := NewGraphStore()

	err := store.CreateVectorIndex(context.Background(), driven.VectorIndexSpec{Name: "x"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	err = store.CreateFulltextIndex(context.Background(), driven.FulltextIndexSpec{Name: "x", Label: "L"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGraphStore_SeedIndexWins(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	store.SeedIndex(domain.IndexInfo{Name: "confluence_embedding", Type: domain.IndexVector, Dimensions: 768})

	require.NoError(t, store.CreateVectorIndex(ctx, vectorSpec()))

	info, ok, err := store.VectorIndex(ctx, driven.IndexLookup{Name: "confluence_embedding"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 768, info.Dimensions, "IF NOT EXISTS leaves the existing index alone")
}

func TestGraphStore_DeleteLabel(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()

	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "1"}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "2"}))
	require.NoError(t, store.CreateNode(ctx, "Postgres", map[string]any{"id": "1"}))

	deleted, err := store.DeleteLabel(ctx, "Confluence")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Zero(t, store.Count("Confluence"))
	assert.Equal(t, 1, store.Count("Postgres"))
	assert.Equal(t, 1, store.DeleteCalls())
}

func TestGraphStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	store.FailWrites(func(props map[string]any) bool { return props["id"] == "bad" })

	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "ok"}))
	assert.Error(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "bad"}))

	n, err := store.CreateNodes(ctx, "Confluence", []map[string]any{{"id": "a"}, {"id": "bad"}})
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.Count("Confluence"))
}

func TestGraphStore_PendingEmbeddingsFillsBatches(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()

	rows := make([]map[string]any, 0, 2500)
	for i := 0; i < 2500; i++ {
		rows = append(rows, map[string]any{"id": fmt.Sprint(i), "name": "row"})
	}
	n, err := store.CreateNodes(ctx, "Postgres", rows)
	require.NoError(t, err)
	require.Equal(t, 2500, n)

	// Not pending: already embedded, or no text property set.
	require.NoError(t, store.CreateNode(ctx, "Postgres", map[string]any{"name": "x", "embedding": []float32{1}}))
	require.NoError(t, store.CreateNode(ctx, "Postgres", map[string]any{"other": "x"}))
	require.NoError(t, store.CreateNode(ctx, "Postgres", map[string]any{"name": nil}))

	batch, err := store.PendingEmbeddings(ctx, "Postgres", "embedding", []string{"name"}, 1000)
	require.NoError(t, err)
	assert.Len(t, batch, 1000)

	_, err = store.PendingEmbeddings(ctx, "Postgres", "embedding", []string{"name"}, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGraphStore_SetEmbeddingsByElementID(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()

	// Same domain id under two labels.
	require.NoError(t, store.CreateNode(ctx, "Postgres", map[string]any{"id": "1", "name": "a"}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "1", "text": "b"}))

	pending, err := store.PendingEmbeddings(ctx, "Postgres", "embedding", []string{"name"}, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	written, err := store.SetEmbeddings(ctx, "Postgres", "embedding", []domain.EmbeddingUpdate{
		{ElementID: pending[0].ElementID, Vector: []float32{0.5, 0.5}},
		{ElementID: "4:memory:999", Vector: []float32{1, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	assert.Equal(t, []float32{0.5, 0.5}, store.Nodes("Postgres")[0]["embedding"])
	assert.Nil(t, store.Nodes("Confluence")[0]["embedding"])

	pending, err = store.PendingEmbeddings(ctx, "Postgres", "embedding", []string{"name"}, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGraphStore_VectorSearch(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	require.NoError(t, store.CreateVectorIndex(ctx, vectorSpec()))

	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "near", "embedding": []float32{1, 0}}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "far", "embedding": []float32{-1, 0}}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "mid", "embedding": []float32{0, 1}}))
	require.NoError(t, store.CreateNode(ctx, "Other", map[string]any{"id": "other", "embedding": []float32{1, 0}}))

	hits, err := store.VectorSearch(ctx, "confluence_embedding", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Properties["id"])
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "mid", hits[1].Properties["id"])
	assert.InDelta(t, 0.5, hits[1].Score, 1e-9)

	_, err = store.VectorSearch(ctx, "confluence_embedding", []float32{1, 0, 0}, 2)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = store.VectorSearch(ctx, "missing", []float32{1, 0}, 2)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGraphStore_KeywordSearch(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	require.NoError(t, store.CreateFulltextIndex(ctx, driven.FulltextIndexSpec{
		Name: "confluence_keyword", Label: "Confluence", Properties: []string{"title", "text"},
	}))

	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "1", "title": "Deploy guide", "text": "deploy the deploy job"}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "2", "title": "Onboarding", "text": "how to deploy"}))
	require.NoError(t, store.CreateNode(ctx, "Confluence", map[string]any{"id": "3", "title": "Unrelated", "text": "nothing"}))

	hits, err := store.KeywordSearch(ctx, "confluence_keyword", `deploy\-guide`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].Properties["id"])
	assert.Equal(t, 4.0, hits[0].Score)
	assert.Equal(t, "2", hits[1].Properties["id"])

	hits, err = store.KeywordSearch(ctx, "confluence_keyword", "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

package neo4j

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

type statement struct {
	write  bool
	cypher string
	params map[string]any
}

// recordingRunner records statements and answers from a queue of results.
type recordingRunner struct {
	statements []statement
	results    [][]Record
	err        error
	closed     bool
}

func (r *recordingRunner) next(write bool, cypher string, params map[string]any) ([]Record, error) {
	r.statements = append(r.statements, statement{write: write, cypher: cypher, params: params})
	if r.err != nil {
		return nil, r.err
	}
	if len(r.results) == 0 {
		return nil, nil
	}
	out := r.results[0]
	r.results = r.results[1:]
	return out, nil
}

func (r *recordingRunner) Read(_ context.Context, cypher string, params map[string]any) ([]Record, error) {
	return r.next(false, cypher, params)
}

func (r *recordingRunner) Write(_ context.Context, cypher string, params map[string]any) ([]Record, error) {
	return r.next(true, cypher, params)
}

func (r *recordingRunner) Close(context.Context) error {
	r.closed = true
	return nil
}

func (r *recordingRunner) last() statement {
	return r.statements[len(r.statements)-1]
}

func vectorIndexRecord(name string, dims int64, entity string) Record {
	return Record{
		"name":          name,
		"type":          "VECTOR",
		"entityType":    entity,
		"labelsOrTypes": []any{"Confluence"},
		"properties":    []any{"embedding"},
		"options": map[string]any{
			"indexConfig": map[string]any{
				"vector.dimensions":          dims,
				"vector.similarity_function": "COSINE",
			},
		},
	}
}

func TestStore_VectorIndex(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{vectorIndexRecord("confluence_embedding", 768, "NODE")}}}
	store := NewStore(runner)

	info, ok, err := store.VectorIndex(context.Background(), driven.IndexLookup{Name: "confluence_embedding"})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 768, info.Dimensions)
	assert.Equal(t, "cosine", info.Similarity)
	assert.Equal(t, domain.EntityNode, info.EntityType)
	assert.Equal(t, []string{"Confluence"}, info.Labels)
	assert.Equal(t, "confluence_embedding", runner.last().params["name"])
	assert.False(t, runner.last().write)
}

func TestStore_VectorIndex_MatchesSchemaUnderAnotherName(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{vectorIndexRecord("vector", 768, "NODE")}}}
	store := NewStore(runner)

	info, ok, err := store.VectorIndex(context.Background(), driven.IndexLookup{
		Name:       "confluence_embedding",
		Label:      "Confluence",
		Properties: []string{"embedding"},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "vector", info.Name)
	assert.Equal(t, 768, info.Dimensions)

	params := runner.last().params
	assert.Equal(t, []any{"Confluence"}, params["labels"])
	assert.Equal(t, []any{"embedding"}, params["properties"])
	assert.Contains(t, runner.last().cypher, "labelsOrTypes = $labels AND properties = $properties")
}

func TestStore_VectorIndex_PrefersTheNamedIndex(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{
		vectorIndexRecord("another", 768, "NODE"),
		vectorIndexRecord("confluence_embedding", 1536, "NODE"),
	}}}
	store := NewStore(runner)

	info, ok, err := store.VectorIndex(context.Background(), driven.IndexLookup{
		Name:       "confluence_embedding",
		Label:      "Confluence",
		Properties: []string{"embedding"},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "confluence_embedding", info.Name)
}

func TestStore_VectorIndex_TypeMismatchIsAbsent(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{vectorIndexRecord("confluence_embedding", 768, "NODE")}}}
	store := NewStore(runner)

	_, ok, err := store.FulltextIndex(context.Background(), driven.IndexLookup{Name: "confluence_embedding"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CreateVectorIndex(t *testing.T) {
	runner := &recordingRunner{}
	store := NewStore(runner)

	err := store.CreateVectorIndex(context.Background(), driven.VectorIndexSpec{
		Name: "confluence_embedding", Label: "Confluence", Property: "embedding", Dimensions: 1536,
	})
	require.NoError(t, err)

	stmt := runner.last()
	assert.True(t, stmt.write)
	assert.Equal(t,
		"CREATE VECTOR INDEX `confluence_embedding` IF NOT EXISTS FOR (n:`Confluence`) ON (n.`embedding`) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: 1536, `vector.similarity_function`: 'cosine'}}",
		stmt.cypher)
}

func TestStore_CreateVectorIndex_RejectsBadInput(t *testing.T) {
	store := NewStore(&recordingRunner{})

	tests := []struct {
		name string
		spec driven.VectorIndexSpec
	}{
		{name: "unknown similarity", spec: driven.VectorIndexSpec{Name: "i", Label: "L", Property: "p", Dimensions: 3, Similarity: "dot'); DROP"}},
		{name: "zero dimensions", spec: driven.VectorIndexSpec{Name: "i", Label: "L", Property: "p"}},
		{name: "empty label", spec: driven.VectorIndexSpec{Name: "i", Property: "p", Dimensions: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateVectorIndex(context.Background(), tt.spec)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestStore_CreateFulltextIndex(t *testing.T) {
	runner := &recordingRunner{}
	store := NewStore(runner)

	err := store.CreateFulltextIndex(context.Background(), driven.FulltextIndexSpec{
		Name: "confluence_keyword", Label: "Confluence", Properties: []string{"text", "title"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE FULLTEXT INDEX `confluence_keyword` IF NOT EXISTS FOR (n:`Confluence`) ON EACH [n.`text`, n.`title`]",
		runner.last().cypher)
}

func TestQuote_EscapesBackticks(t *testing.T) {
	q, err := quote("we`ird")
	require.NoError(t, err)
	assert.Equal(t, "`we``ird`", q)

	_, err = quote("  ")
	assert.Error(t, err)
}

func TestStore_DeleteLabel(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{{"deleted": int64(42)}}}}
	store := NewStore(runner)

	n, err := store.DeleteLabel(context.Background(), "Confluence")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, "MATCH (n:`Confluence`) DETACH DELETE n RETURN count(*) AS deleted", runner.last().cypher)
}

func TestStore_CreateNode_EncodesEmbedding(t *testing.T) {
	runner := &recordingRunner{}
	store := NewStore(runner)

	node := domain.IndexedNode{ID: "1", Title: "T", Embedding: []float32{0.5, 0.25}}
	require.NoError(t, store.CreateNode(context.Background(), "Confluence", node.Properties()))

	props := runner.last().params["props"].(map[string]any)
	assert.Equal(t, []float64{0.5, 0.25}, props["embedding"])
	assert.Equal(t, "1", props["id"])
}

func TestStore_CreateNodes_SingleUnwind(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{{"created": int64(2)}}}}
	store := NewStore(runner)

	n, err := store.CreateNodes(context.Background(), "Postgres", []map[string]any{
		{"id": "1", "source_table": "api_users"},
		{"id": "2", "source_table": "api_users"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, runner.statements, 1)
	assert.True(t, strings.HasPrefix(runner.last().cypher, "UNWIND $rows AS row CREATE (n:`Postgres`)"))
	assert.Len(t, runner.last().params["rows"], 2)

	n, err = store.CreateNodes(context.Background(), "Postgres", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, runner.statements, 1, "empty batch issues no statement")
}

func TestStore_PendingEmbeddings(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{
		{"elementId": "4:abc:1", "props": map[string]any{"id": "1", "name": "Ada"}},
		{"elementId": "4:abc:2", "props": map[string]any{"id": "2", "name": "Bob"}},
	}}}
	store := NewStore(runner)

	pending, err := store.PendingEmbeddings(context.Background(), "Postgres", "embedding", []string{"id", "name"}, 1000)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "4:abc:1", pending[0].ElementID)
	assert.Equal(t, "Ada", pending[0].Properties["name"])

	stmt := runner.last()
	assert.Equal(t,
		"MATCH (n:`Postgres`) WHERE n.`embedding` IS NULL AND (n.`id` IS NOT NULL OR n.`name` IS NOT NULL) "+
			"RETURN elementId(n) AS elementId, properties(n) AS props LIMIT $limit",
		stmt.cypher)
	assert.Equal(t, 1000, stmt.params["limit"])
}

func TestStore_SetEmbeddings_ByElementID(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{{{"updated": int64(1)}}}}
	store := NewStore(runner)

	n, err := store.SetEmbeddings(context.Background(), "Postgres", "embedding", []domain.EmbeddingUpdate{
		{ElementID: "4:abc:1", Vector: []float32{1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stmt := runner.last()
	assert.Contains(t, stmt.cypher, "WHERE elementId(n) = row.id")
	assert.Contains(t, stmt.cypher, "db.create.setNodeVectorProperty")
	assert.Equal(t, "embedding", stmt.params["property"])

	rows := stmt.params["rows"].([]any)
	assert.Equal(t, map[string]any{"id": "4:abc:1", "vector": []float64{1, 0}}, rows[0])
}

func TestStore_Search(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{
		{{"elementId": "4:a:1", "props": map[string]any{"text": "hello"}, "score": 0.9}},
		{{"elementId": "4:a:2", "props": map[string]any{"text": "world"}, "score": 3.5}},
	}}
	store := NewStore(runner)

	hits, err := store.VectorSearch(context.Background(), "confluence_embedding", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.9, hits[0].Score)
	assert.Equal(t, []float64{1, 0}, runner.last().params["vector"])
	assert.Contains(t, runner.last().cypher, "db.index.vector.queryNodes")

	hits, err = store.KeywordSearch(context.Background(), "confluence_keyword", "hello", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "4:a:2", hits[0].ElementID)
	assert.Contains(t, runner.last().cypher, "db.index.fulltext.queryNodes")
}

func TestStore_IndexesAndConstraints(t *testing.T) {
	runner := &recordingRunner{results: [][]Record{
		{vectorIndexRecord("a", 1536, "NODE"), {"name": "b", "type": "RANGE", "entityType": "NODE"}},
		{{"name": "uniq", "type": "UNIQUENESS", "entityType": "NODE", "labelsOrTypes": []any{"Confluence"}, "properties": []any{"id"}}},
	}}
	store := NewStore(runner)

	indexes, err := store.Indexes(context.Background())
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, 1536, indexes[0].Dimensions)
	assert.Equal(t, domain.IndexType("RANGE"), indexes[1].Type)

	constraints, err := store.Constraints(context.Background())
	require.NoError(t, err)
	require.Len(t, constraints, 1)
	assert.Equal(t, []string{"id"}, constraints[0].Properties)
}

func TestStore_ErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewStore(&recordingRunner{err: boom})

	_, err := store.DeleteLabel(context.Background(), "Confluence")
	assert.ErrorIs(t, err, boom)

	_, _, err = store.VectorIndex(context.Background(), driven.IndexLookup{Name: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestStore_Close(t *testing.T) {
	runner := &recordingRunner{}
	require.NoError(t, NewStore(runner).Close(context.Background()))
	assert.True(t, runner.closed)
}

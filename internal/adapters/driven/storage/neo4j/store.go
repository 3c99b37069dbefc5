// Package neo4j provides a GraphStore backed by Neo4j 5.
//
// Indexes are managed with SHOW INDEXES and CREATE ... IF NOT EXISTS,
// embeddings are written with db.create.setNodeVectorProperty and queried
// with db.index.vector.queryNodes and db.index.fulltext.queryNodes.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.GraphStore = (*Store)(nil)

const (
	showIndexes = "SHOW INDEXES YIELD name, type, entityType, labelsOrTypes, properties, options " +
		"WHERE $name IS NULL OR name = $name OR (labelsOrTypes = $labels AND properties = $properties) " +
		"RETURN name, type, entityType, labelsOrTypes, properties, options ORDER BY name"

	showConstraints = "SHOW CONSTRAINTS YIELD name, type, entityType, labelsOrTypes, properties " +
		"RETURN name, type, entityType, labelsOrTypes, properties ORDER BY name"

	vectorQuery = "CALL db.index.vector.queryNodes($index, $k, $vector) YIELD node, score " +
		"RETURN elementId(node) AS elementId, properties(node) AS props, score"

	keywordQuery = "CALL db.index.fulltext.queryNodes($index, $query, {limit: $k}) YIELD node, score " +
		"RETURN elementId(node) AS elementId, properties(node) AS props, score " +
		"ORDER BY score DESC LIMIT $k"
)

// Store is a Neo4j implementation of driven.GraphStore.
type Store struct {
	runner Runner
}

// NewStore creates a store that issues statements through runner.
func NewStore(runner Runner) *Store {
	return &Store{runner: runner}
}

// VectorIndex returns the vector index with the lookup's name, or else one
// bound to its label and properties.
func (s *Store) VectorIndex(ctx context.Context, lookup driven.IndexLookup) (domain.IndexInfo, bool, error) {
	return s.findIndex(ctx, lookup, domain.IndexVector)
}

// FulltextIndex is VectorIndex for fulltext indexes.
func (s *Store) FulltextIndex(ctx context.Context, lookup driven.IndexLookup) (domain.IndexInfo, bool, error) {
	return s.findIndex(ctx, lookup, domain.IndexFulltext)
}

func (s *Store) findIndex(ctx context.Context, lookup driven.IndexLookup, typ domain.IndexType) (domain.IndexInfo, bool, error) {
	params := map[string]any{"name": lookup.Name, "labels": nil, "properties": nil}
	if lookup.Label != "" {
		params["labels"] = []any{lookup.Label}
		params["properties"] = toAnySlice(lookup.Properties)
	}
	rows, err := s.runner.Read(ctx, showIndexes, params)
	if err != nil {
		return domain.IndexInfo{}, false, fmt.Errorf("show index %s: %w", lookup.Name, err)
	}
	indexes := make([]domain.IndexInfo, len(rows))
	for i, row := range rows {
		indexes[i] = indexFromRecord(row)
	}
	info, ok := lookup.Select(indexes, typ)
	return info, ok, nil
}

// CreateVectorIndex issues CREATE VECTOR INDEX ... IF NOT EXISTS.
func (s *Store) CreateVectorIndex(ctx context.Context, spec driven.VectorIndexSpec) error {
	similarity := spec.Similarity
	if similarity == "" {
		similarity = "cosine"
	}
	if !similarityFunctions[similarity] {
		return fmt.Errorf("similarity function %q: %w", similarity, domain.ErrInvalidInput)
	}
	if spec.Dimensions <= 0 {
		return fmt.Errorf("vector index %s dimensions %d: %w", spec.Name, spec.Dimensions, domain.ErrInvalidInput)
	}

	ids, err := quoteAll(spec.Name, spec.Label, spec.Property)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}

	// Index options do not accept parameters.
	cypher := fmt.Sprintf(
		"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: '%s'}}",
		ids[0], ids[1], ids[2], spec.Dimensions, similarity,
	)
	if _, err := s.runner.Write(ctx, cypher, nil); err != nil {
		return fmt.Errorf("create vector index %s: %w", spec.Name, err)
	}
	return nil
}

// CreateFulltextIndex issues CREATE FULLTEXT INDEX ... IF NOT EXISTS.
func (s *Store) CreateFulltextIndex(ctx context.Context, spec driven.FulltextIndexSpec) error {
	if len(spec.Properties) == 0 {
		return fmt.Errorf("fulltext index %s has no properties: %w", spec.Name, domain.ErrInvalidInput)
	}

	ids, err := quoteAll(spec.Name, spec.Label)
	if err != nil {
		return fmt.Errorf("fulltext index: %w", err)
	}
	props, err := quoteAll(spec.Properties...)
	if err != nil {
		return fmt.Errorf("fulltext index: %w", err)
	}
	for i, p := range props {
		props[i] = "n." + p
	}

	cypher := fmt.Sprintf(
		"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
		ids[0], ids[1], strings.Join(props, ", "),
	)
	if _, err := s.runner.Write(ctx, cypher, nil); err != nil {
		return fmt.Errorf("create fulltext index %s: %w", spec.Name, err)
	}
	return nil
}

// Indexes lists every index.
func (s *Store) Indexes(ctx context.Context) ([]domain.IndexInfo, error) {
	rows, err := s.runner.Read(ctx, showIndexes, map[string]any{"name": nil, "labels": nil, "properties": nil})
	if err != nil {
		return nil, fmt.Errorf("show indexes: %w", err)
	}
	out := make([]domain.IndexInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, indexFromRecord(row))
	}
	return out, nil
}

// Constraints lists every constraint.
func (s *Store) Constraints(ctx context.Context) ([]domain.Constraint, error) {
	rows, err := s.runner.Read(ctx, showConstraints, nil)
	if err != nil {
		return nil, fmt.Errorf("show constraints: %w", err)
	}
	out := make([]domain.Constraint, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Constraint{
			Name:       asString(row["name"]),
			Type:       asString(row["type"]),
			EntityType: domain.EntityType(asString(row["entityType"])),
			Labels:     asStrings(row["labelsOrTypes"]),
			Properties: asStrings(row["properties"]),
		})
	}
	return out, nil
}

// DeleteLabel detaches and deletes every node with label in one statement.
func (s *Store) DeleteLabel(ctx context.Context, label string) (int, error) {
	l, err := quote(label)
	if err != nil {
		return 0, fmt.Errorf("delete label: %w", err)
	}
	rows, err := s.runner.Write(ctx, "MATCH (n:"+l+") DETACH DELETE n RETURN count(*) AS deleted", nil)
	if err != nil {
		return 0, fmt.Errorf("delete %s nodes: %w", label, err)
	}
	return firstInt(rows, "deleted"), nil
}

// CreateNode writes one node.
func (s *Store) CreateNode(ctx context.Context, label string, props map[string]any) error {
	l, err := quote(label)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	if _, err := s.runner.Write(ctx, "CREATE (n:"+l+") SET n = $props", map[string]any{
		"props": encodeProps(props),
	}); err != nil {
		return fmt.Errorf("create %s node: %w", label, err)
	}
	return nil
}

// CreateNodes writes rows with a single UNWIND statement.
func (s *Store) CreateNodes(ctx context.Context, label string, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	l, err := quote(label)
	if err != nil {
		return 0, fmt.Errorf("create nodes: %w", err)
	}

	encoded := make([]any, len(rows))
	for i, row := range rows {
		encoded[i] = encodeProps(row)
	}

	result, err := s.runner.Write(ctx,
		"UNWIND $rows AS row CREATE (n:"+l+") SET n = row RETURN count(n) AS created",
		map[string]any{"rows": encoded},
	)
	if err != nil {
		return 0, fmt.Errorf("create %d %s nodes: %w", len(rows), label, err)
	}
	return firstInt(result, "created"), nil
}

// PendingEmbeddings selects nodes with no embedding and some text. LIMIT
// fills the batch whenever enough rows match.
func (s *Store) PendingEmbeddings(
	ctx context.Context, label, embeddingProp string, textProps []string, limit int,
) ([]domain.PendingNode, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("pending limit %d: %w", limit, domain.ErrInvalidInput)
	}
	if len(textProps) == 0 {
		return nil, fmt.Errorf("pending embeddings need text properties: %w", domain.ErrInvalidInput)
	}
	ids, err := quoteAll(label, embeddingProp)
	if err != nil {
		return nil, fmt.Errorf("pending embeddings: %w", err)
	}
	props, err := quoteAll(textProps...)
	if err != nil {
		return nil, fmt.Errorf("pending embeddings: %w", err)
	}
	conds := make([]string, len(props))
	for i, p := range props {
		conds[i] = "n." + p + " IS NOT NULL"
	}

	cypher := fmt.Sprintf(
		"MATCH (n:%s) WHERE n.%s IS NULL AND (%s) "+
			"RETURN elementId(n) AS elementId, properties(n) AS props LIMIT $limit",
		ids[0], ids[1], strings.Join(conds, " OR "),
	)
	rows, err := s.runner.Read(ctx, cypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("query pending %s nodes: %w", label, err)
	}

	out := make([]domain.PendingNode, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PendingNode{
			ElementID:  asString(row["elementId"]),
			Properties: asMap(row["props"]),
		})
	}
	return out, nil
}

// SetEmbeddings writes every vector in one UNWIND statement, matching nodes
// by element id.
func (s *Store) SetEmbeddings(
	ctx context.Context, label, embeddingProp string, updates []domain.EmbeddingUpdate,
) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	l, err := quote(label)
	if err != nil {
		return 0, fmt.Errorf("set embeddings: %w", err)
	}

	rows := make([]any, len(updates))
	for i, u := range updates {
		rows[i] = map[string]any{"id": u.ElementID, "vector": toFloat64s(u.Vector)}
	}

	cypher := "UNWIND $rows AS row MATCH (n:" + l + ") WHERE elementId(n) = row.id " +
		"CALL db.create.setNodeVectorProperty(n, $property, row.vector) " +
		"RETURN count(n) AS updated"
	result, err := s.runner.Write(ctx, cypher, map[string]any{
		"rows":     rows,
		"property": embeddingProp,
	})
	if err != nil {
		return 0, fmt.Errorf("set %d embeddings on %s: %w", len(updates), label, err)
	}
	return firstInt(result, "updated"), nil
}

// VectorSearch queries a vector index.
func (s *Store) VectorSearch(ctx context.Context, index string, vector []float32, k int) ([]domain.StoredNode, error) {
	rows, err := s.runner.Read(ctx, vectorQuery, map[string]any{
		"index":  index,
		"k":      k,
		"vector": toFloat64s(vector),
	})
	if err != nil {
		return nil, fmt.Errorf("vector search %s: %w", index, err)
	}
	return storedNodes(rows), nil
}

// KeywordSearch queries a fulltext index. query must already be escaped.
func (s *Store) KeywordSearch(ctx context.Context, index, query string, k int) ([]domain.StoredNode, error) {
	rows, err := s.runner.Read(ctx, keywordQuery, map[string]any{
		"index": index,
		"query": query,
		"k":     k,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search %s: %w", index, err)
	}
	return storedNodes(rows), nil
}

// Close closes the runner.
func (s *Store) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func indexFromRecord(row Record) domain.IndexInfo {
	info := domain.IndexInfo{
		Name:       asString(row["name"]),
		Type:       domain.IndexType(asString(row["type"])),
		EntityType: domain.EntityType(asString(row["entityType"])),
		Labels:     asStrings(row["labelsOrTypes"]),
		Properties: asStrings(row["properties"]),
	}
	if cfg := asMap(asMap(row["options"])["indexConfig"]); cfg != nil {
		info.Dimensions = asInt(cfg["vector.dimensions"])
		info.Similarity = strings.ToLower(asString(cfg["vector.similarity_function"]))
	}
	return info
}

func storedNodes(rows []Record) []domain.StoredNode {
	out := make([]domain.StoredNode, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StoredNode{
			ElementID:  asString(row["elementId"]),
			Properties: asMap(row["props"]),
			Score:      asFloat(row["score"]),
		})
	}
	return out
}

func firstInt(rows []Record, key string) int {
	if len(rows) == 0 {
		return 0
	}
	return asInt(rows[0][key])
}

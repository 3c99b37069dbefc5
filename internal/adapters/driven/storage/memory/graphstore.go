package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// Ensure GraphStore implements the interface.
var _ driven.GraphStore = (*GraphStore)(nil)

type node struct {
	elementID string
	label     string
	props     map[string]any
}

// GraphStore is an in-memory implementation of driven.GraphStore.
type GraphStore struct {
	mu          sync.RWMutex
	seq         int
	nodes       []*node
	indexes     map[string]domain.IndexInfo
	constraints []domain.Constraint

	// failWrite, when set, makes CreateNode fail for matching properties.
	failWrite func(props map[string]any) bool

	deletes int
}

// NewGraphStore creates an empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		indexes: make(map[string]domain.IndexInfo),
	}
}

// SeedIndex registers an index as if it already existed in the store.
func (s *GraphStore) SeedIndex(info domain.IndexInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[info.Name] = info
}

// SeedConstraint registers an existing constraint.
func (s *GraphStore) SeedConstraint(c domain.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = append(s.constraints, c)
}

// FailWrites makes CreateNode return an error whenever fn matches.
func (s *GraphStore) FailWrites(fn func(props map[string]any) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = fn
}

// Nodes returns a copy of the properties of every node with label, in
// insertion order.
func (s *GraphStore) Nodes(label string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []map[string]any
	for _, n := range s.nodes {
		if n.label == label {
			out = append(out, copyProps(n.props))
		}
	}
	return out
}

// Count returns the number of nodes with label.
func (s *GraphStore) Count(label string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.nodes {
		if n.label == label {
			count++
		}
	}
	return count
}

// DeleteCalls returns how many times DeleteLabel ran.
func (s *GraphStore) DeleteCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes
}

// VectorIndex returns the vector index matching the lookup by name or schema.
func (s *GraphStore) VectorIndex(_ context.Context, lookup driven.IndexLookup) (domain.IndexInfo, bool, error) {
	info, ok := lookup.Select(s.sortedIndexes(), domain.IndexVector)
	return info, ok, nil
}

// FulltextIndex returns the fulltext index matching the lookup by name or schema.
func (s *GraphStore) FulltextIndex(_ context.Context, lookup driven.IndexLookup) (domain.IndexInfo, bool, error) {
	info, ok := lookup.Select(s.sortedIndexes(), domain.IndexFulltext)
	return info, ok, nil
}

func (s *GraphStore) index(name string, typ domain.IndexType) (domain.IndexInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.indexes[name]
	if !ok || info.Type != typ {
		return domain.IndexInfo{}, false, nil
	}
	return info, true, nil
}

// CreateVectorIndex creates the index unless one with the same name exists.
func (s *GraphStore) CreateVectorIndex(_ context.Context, spec driven.VectorIndexSpec) error {
	if spec.Name == "" || spec.Label == "" || spec.Property == "" || spec.Dimensions <= 0 {
		return fmt.Errorf("vector index %q: %w", spec.Name, domain.ErrInvalidInput)
	}
	similarity := spec.Similarity
	if similarity == "" {
		similarity = "cosine"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[spec.Name]; exists {
		return nil
	}
	s.indexes[spec.Name] = domain.IndexInfo{
		Name:       spec.Name,
		Type:       domain.IndexVector,
		EntityType: domain.EntityNode,
		Labels:     []string{spec.Label},
		Properties: []string{spec.Property},
		Dimensions: spec.Dimensions,
		Similarity: similarity,
	}
	return nil
}

// CreateFulltextIndex creates the index unless one with the same name exists.
func (s *GraphStore) CreateFulltextIndex(_ context.Context, spec driven.FulltextIndexSpec) error {
	if spec.Name == "" || spec.Label == "" || len(spec.Properties) == 0 {
		return fmt.Errorf("fulltext index %q: %w", spec.Name, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[spec.Name]; exists {
		return nil
	}
	s.indexes[spec.Name] = domain.IndexInfo{
		Name:       spec.Name,
		Type:       domain.IndexFulltext,
		EntityType: domain.EntityNode,
		Labels:     []string{spec.Label},
		Properties: append([]string(nil), spec.Properties...),
	}
	return nil
}

// Indexes lists every index sorted by name.
func (s *GraphStore) Indexes(_ context.Context) ([]domain.IndexInfo, error) {
	return s.sortedIndexes(), nil
}

func (s *GraphStore) sortedIndexes() []domain.IndexInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IndexInfo, 0, len(s.indexes))
	for _, info := range s.indexes {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Constraints lists every seeded constraint.
func (s *GraphStore) Constraints(_ context.Context) ([]domain.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Constraint(nil), s.constraints...), nil
}

// DeleteLabel removes every node carrying label.
func (s *GraphStore) DeleteLabel(_ context.Context, label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	kept := s.nodes[:0]
	deleted := 0
	for _, n := range s.nodes {
		if n.label == label {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.nodes = kept
	return deleted, nil
}

// CreateNode writes one node.
func (s *GraphStore) CreateNode(_ context.Context, label string, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrite != nil && s.failWrite(props) {
		return fmt.Errorf("memory: write rejected for node %v", props[domain.PropID])
	}
	s.insert(label, props)
	return nil
}

// CreateNodes writes all rows or none.
func (s *GraphStore) CreateNodes(_ context.Context, label string, rows []map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrite != nil {
		for _, row := range rows {
			if s.failWrite(row) {
				return 0, fmt.Errorf("memory: batch write rejected")
			}
		}
	}
	for _, row := range rows {
		s.insert(label, row)
	}
	return len(rows), nil
}

// insert appends a node (caller must hold lock).
func (s *GraphStore) insert(label string, props map[string]any) {
	s.seq++
	s.nodes = append(s.nodes, &node{
		elementID: fmt.Sprintf("4:memory:%d", s.seq),
		label:     label,
		props:     copyProps(props),
	})
}

// PendingEmbeddings returns the first limit matching nodes in insertion
// order. The batch is always full when enough matches exist.
func (s *GraphStore) PendingEmbeddings(
	_ context.Context, label, embeddingProp string, textProps []string, limit int,
) ([]domain.PendingNode, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("pending limit %d: %w", limit, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PendingNode
	for _, n := range s.nodes {
		if len(out) == limit {
			break
		}
		if n.label != label || hasValue(n.props[embeddingProp]) || !anyNonNull(n.props, textProps) {
			continue
		}
		out = append(out, domain.PendingNode{
			ElementID:  n.elementID,
			Properties: copyProps(n.props),
		})
	}
	return out, nil
}

// SetEmbeddings writes vectors by element id. Unknown ids are skipped.
func (s *GraphStore) SetEmbeddings(
	_ context.Context, label, embeddingProp string, updates []domain.EmbeddingUpdate,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*node, len(s.nodes))
	for _, n := range s.nodes {
		byID[n.elementID] = n
	}

	written := 0
	for _, u := range updates {
		n, ok := byID[u.ElementID]
		if !ok || n.label != label {
			continue
		}
		n.props[embeddingProp] = append([]float32(nil), u.Vector...)
		written++
	}
	return written, nil
}

// VectorSearch ranks nodes by cosine similarity, scored as (1+cos)/2.
func (s *GraphStore) VectorSearch(_ context.Context, index string, vector []float32, k int) ([]domain.StoredNode, error) {
	info, ok, _ := s.index(index, domain.IndexVector)
	if !ok {
		return nil, fmt.Errorf("vector index %q: %w", index, domain.ErrNotFound)
	}
	if len(vector) != info.Dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index %q expects %d: %w",
			len(vector), index, info.Dimensions, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prop := info.Properties[0]
	var hits []domain.StoredNode
	for _, n := range s.nodes {
		if !info.HasLabel(n.label) {
			continue
		}
		stored, ok := n.props[prop].([]float32)
		if !ok || len(stored) != len(vector) {
			continue
		}
		hits = append(hits, domain.StoredNode{
			ElementID:  n.elementID,
			Properties: copyProps(n.props),
			Score:      (1 + cosine(vector, stored)) / 2,
		})
	}
	return topK(hits, k), nil
}

// KeywordSearch scores nodes by how many query terms occur in the indexed
// properties.
func (s *GraphStore) KeywordSearch(_ context.Context, index, query string, k int) ([]domain.StoredNode, error) {
	info, ok, _ := s.index(index, domain.IndexFulltext)
	if !ok {
		return nil, fmt.Errorf("fulltext index %q: %w", index, domain.ErrNotFound)
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.StoredNode
	for _, n := range s.nodes {
		if !info.HasLabel(n.label) {
			continue
		}
		counts := make(map[string]int)
		for _, p := range info.Properties {
			if str, ok := n.props[p].(string); ok {
				for _, tok := range tokenize(str) {
					counts[tok]++
				}
			}
		}
		score := 0
		for _, term := range terms {
			score += counts[term]
		}
		if score == 0 {
			continue
		}
		hits = append(hits, domain.StoredNode{
			ElementID:  n.elementID,
			Properties: copyProps(n.props),
			Score:      float64(score),
		})
	}
	return topK(hits, k), nil
}

// Close is a no-op.
func (s *GraphStore) Close(context.Context) error {
	return nil
}

func topK(hits []domain.StoredNode, k int) []domain.StoredNode {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// tokenize lower-cases and splits on anything that is not a letter or
// digit, so Lucene escapes in a query do not affect matching.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case []float32:
		return len(x) > 0
	default:
		return true
	}
}

func anyNonNull(props map[string]any, keys []string) bool {
	for _, k := range keys {
		if props[k] != nil {
			return true
		}
	}
	return false
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if vec, ok := v.([]float32); ok {
			v = append([]float32(nil), vec...)
		}
		out[k] = v
	}
	return out
}

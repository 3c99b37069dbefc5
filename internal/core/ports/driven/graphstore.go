package driven

import (
	"context"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// VectorIndexSpec describes a vector index to create.
type VectorIndexSpec struct {
	Name       string
	Label      string
	Property   string
	Dimensions int

	// Similarity is the similarity function, "cosine" when empty.
	Similarity string
}

// FulltextIndexSpec describes a fulltext index to create.
type FulltextIndexSpec struct {
	Name       string
	Label      string
	Properties []string
}

// IndexLookup finds an existing index either by name or by the label and
// properties it is bound to, so an index created under another name is still
// found.
type IndexLookup struct {
	Name       string
	Label      string
	Properties []string
}

// Select returns the first index of type typ matching the lookup. A name
// match wins over a schema match.
func (l IndexLookup) Select(indexes []domain.IndexInfo, typ domain.IndexType) (domain.IndexInfo, bool) {
	var (
		schema domain.IndexInfo
		found  bool
	)
	for _, info := range indexes {
		if info.Type != typ {
			continue
		}
		if info.Name == l.Name {
			return info, true
		}
		if !found && l.Label != "" && info.Covers(l.Label, l.Properties) {
			schema, found = info, true
		}
	}
	return schema, found
}

// GraphStore persists nodes and manages the indexes built over them.
type GraphStore interface {
	// VectorIndex returns the existing vector index matching the lookup.
	// The boolean is false when no such index exists.
	VectorIndex(ctx context.Context, lookup IndexLookup) (domain.IndexInfo, bool, error)

	// FulltextIndex returns the existing fulltext index matching the lookup.
	FulltextIndex(ctx context.Context, lookup IndexLookup) (domain.IndexInfo, bool, error)

	// CreateVectorIndex creates a vector index if it does not exist.
	CreateVectorIndex(ctx context.Context, spec VectorIndexSpec) error

	// CreateFulltextIndex creates a fulltext index if it does not exist.
	CreateFulltextIndex(ctx context.Context, spec FulltextIndexSpec) error

	// Indexes lists every index in the store.
	Indexes(ctx context.Context) ([]domain.IndexInfo, error)

	// Constraints lists every constraint in the store.
	Constraints(ctx context.Context) ([]domain.Constraint, error)

	// DeleteLabel removes every node carrying the label, with its relationships.
	// Returns the number of nodes deleted.
	DeleteLabel(ctx context.Context, label string) (int, error)

	// CreateNode writes one node with the given properties.
	CreateNode(ctx context.Context, label string, props map[string]any) error

	// CreateNodes writes a batch of nodes in one statement.
	CreateNodes(ctx context.Context, label string, rows []map[string]any) (int, error)

	// PendingEmbeddings returns up to limit nodes of label whose embedding
	// property is unset and where at least one of textProps is non-null.
	// Implementations must fill the batch up to limit whenever that many
	// matching nodes exist.
	PendingEmbeddings(ctx context.Context, label, embeddingProp string, textProps []string, limit int) ([]domain.PendingNode, error)

	// SetEmbeddings writes vectors back by element id.
	SetEmbeddings(ctx context.Context, label, embeddingProp string, updates []domain.EmbeddingUpdate) (int, error)

	// VectorSearch returns the k nodes nearest to vector in the named index.
	VectorSearch(ctx context.Context, index string, vector []float32, k int) ([]domain.StoredNode, error)

	// KeywordSearch returns the k best fulltext matches for query in the named index.
	KeywordSearch(ctx context.Context, index, query string, k int) ([]domain.StoredNode, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

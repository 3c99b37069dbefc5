package domain

import "slices"

// Store property names used for wiki nodes.
const (
	PropID        = "id"
	PropTitle     = "title"
	PropText      = "text"
	PropSpaceName = "space_name"
	PropSpaceKey  = "space_key"
	PropEmbedding = "embedding"

	// PropSourceTable records the table a relational row came from.
	PropSourceTable = "source_table"
)

// IndexedNode is the unit written into the store for one crawled page.
type IndexedNode struct {
	ID        string
	Title     string
	Text      string
	SpaceName string
	SpaceKey  string
	Embedding []float32
}

// Properties returns the node as store properties.
func (n IndexedNode) Properties() map[string]any {
	return map[string]any{
		PropID:        n.ID,
		PropTitle:     n.Title,
		PropText:      n.Text,
		PropSpaceName: n.SpaceName,
		PropSpaceKey:  n.SpaceKey,
		PropEmbedding: n.Embedding,
	}
}

// NewIndexedNode builds the node for a crawled page and its embedding.
func NewIndexedNode(p CrawledPage, embedding []float32) IndexedNode {
	return IndexedNode{
		ID:        p.Page.ID,
		Title:     p.Page.Title,
		Text:      p.Text,
		SpaceName: p.Page.SpaceName,
		SpaceKey:  p.Page.SpaceKey,
		Embedding: embedding,
	}
}

// PendingNode is a stored node whose embedding is unset.
// ElementID is the store's internal identifier, not the domain id, since
// domain ids can repeat across labels.
type PendingNode struct {
	ElementID  string
	Properties map[string]any
}

// EmbeddingUpdate writes one vector back to a node by element id.
type EmbeddingUpdate struct {
	ElementID string
	Vector    []float32
}

// EntityType is the kind of graph entity an index covers.
type EntityType string

// Index entity types as reported by the store.
const (
	EntityNode         EntityType = "NODE"
	EntityRelationship EntityType = "RELATIONSHIP"
)

// IndexType is the kind of index.
type IndexType string

// Index types relevant to this pipeline.
const (
	IndexVector   IndexType = "VECTOR"
	IndexFulltext IndexType = "FULLTEXT"
)

// IndexInfo describes an existing index in the store.
type IndexInfo struct {
	Name       string
	Type       IndexType
	EntityType EntityType
	Labels     []string
	Properties []string

	// Dimensions is set for vector indexes only.
	Dimensions int

	// Similarity is the vector similarity function, when known.
	Similarity string
}

// HasLabel reports whether the index covers the given label.
func (i IndexInfo) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Covers reports whether the index is bound to exactly label and properties.
func (i IndexInfo) Covers(label string, properties []string) bool {
	return slices.Equal(i.Labels, []string{label}) && slices.Equal(i.Properties, properties)
}

// Constraint describes an existing schema constraint in the store.
type Constraint struct {
	Name       string
	Type       string
	EntityType EntityType
	Labels     []string
	Properties []string
}

// StoredNode is a node returned by a store search, with its raw score.
type StoredNode struct {
	ElementID  string
	Properties map[string]any
	Score      float64
}

package domain

// SearchMode selects which index a query runs against.
type SearchMode string

// Available search modes.
const (
	// SearchModeVector uses only dense-vector similarity.
	SearchModeVector SearchMode = "vector"

	// SearchModeKeyword uses only the fulltext index.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHybrid merges vector and keyword results.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeVector, SearchModeKeyword, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode embeds the query.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeVector, SearchModeKeyword, SearchModeHybrid}
}

// DefaultSearchLimit is the number of hits returned when no limit is given.
const DefaultSearchLimit = 5

// SearchHit is a single result of a query.
type SearchHit struct {
	// ElementID identifies the node within the store.
	ElementID string

	// Text is the node's declared text properties composed as name: value lines.
	Text string

	// Metadata holds every other property except the embedding.
	Metadata map[string]any

	// Score is the relevance score. Hybrid scores are normalised to [0,1].
	Score float64
}

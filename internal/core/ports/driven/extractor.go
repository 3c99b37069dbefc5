package driven

import "github.com/custodia-labs/docugraph/internal/core/domain"

// ContentExtractor converts a page body to plain text.
// A body with no recognised shape yields "" rather than an error.
type ContentExtractor interface {
	Extract(body domain.PageBody) string
}

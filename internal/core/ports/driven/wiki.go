package driven

import (
	"context"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// WikiClient reads the remote wiki.
// Every collection method walks all pages of the endpoint before returning.
// When the client is not configured it returns empty results and no error.
type WikiClient interface {
	// ListSpaces returns every space visible to the credential.
	ListSpaces(ctx context.Context) ([]domain.Space, error)

	// ListPages returns the top-level pages of a space.
	// Bodies are not populated.
	ListPages(ctx context.Context, spaceID string) ([]domain.Page, error)

	// GetPage fetches one page including its storage body.
	GetPage(ctx context.Context, pageID string) (domain.Page, error)

	// ListChildren returns the direct children of a page.
	ListChildren(ctx context.Context, pageID string) ([]domain.Page, error)
}

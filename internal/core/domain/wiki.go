package domain

// Space is a named collection of pages in the source wiki.
type Space struct {
	ID   string
	Key  string
	Name string
}

// BodyKind identifies which payload shape carried a page body.
type BodyKind int

// Page body shapes returned by the wiki.
const (
	// BodyNone means the page carried no recognised body.
	BodyNone BodyKind = iota

	// BodyInline is body.storage.value on the page object itself.
	BodyInline

	// BodyNested is content.body.storage.value on a secondary content object.
	BodyNested
)

// String returns the string representation.
func (k BodyKind) String() string {
	switch k {
	case BodyInline:
		return "inline"
	case BodyNested:
		return "nested"
	default:
		return "none"
	}
}

// PageBody is the storage markup of a page, tagged with the shape it came from.
// The kind is resolved once when the payload is decoded.
type PageBody struct {
	Kind   BodyKind
	Markup string
}

// IsEmpty reports whether the body carries no markup.
func (b PageBody) IsEmpty() bool {
	return b.Kind == BodyNone || b.Markup == ""
}

// Page is one wiki document. Identity is ID.
// SpaceName and SpaceKey are copied from the owning space during the crawl.
type Page struct {
	ID        string
	Title     string
	SpaceID   string
	SpaceName string
	SpaceKey  string
	Body      PageBody
}

// CrawledPage is a page whose content has been fetched and extracted.
type CrawledPage struct {
	Page Page

	// Text is the plain text extracted from the body.
	Text string

	// EmbeddingText is the title followed by the text.
	EmbeddingText string
}

// EmbeddingTextFor builds the text that drives a page's embedding.
// An empty body still yields the title.
func EmbeddingTextFor(title, text string) string {
	return title + " " + text
}

// Package storage converts Confluence storage-format markup to plain text.
package storage

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// skipped elements whose text content is never part of the page text.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Extractor turns page bodies into plain text.
type Extractor struct{}

// New creates a new storage-format extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of a page body. Each text fragment is
// trimmed, empty fragments are dropped and the rest are joined by single
// spaces. A body of kind BodyNone yields "".
func (e *Extractor) Extract(body domain.PageBody) string {
	if body.IsEmpty() {
		return ""
	}
	return MarkupToText(body.Markup)
}

// MarkupToText strips tags and decodes entities. CDATA sections, which
// Confluence uses for code and plain-text macro bodies, count as text.
func MarkupToText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	z.AllowCDATA(true)

	var out bytes.Buffer
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(out.String())

		case html.StartTagToken:
			name, _ := z.TagName()
			if skipped[string(name)] {
				depth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if skipped[string(name)] && depth > 0 {
				depth--
			}

		case html.TextToken:
			if depth > 0 {
				continue
			}
			fragment := strings.TrimSpace(string(z.Text()))
			if fragment == "" {
				continue
			}
			if out.Len() > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(fragment)
		}
	}
}

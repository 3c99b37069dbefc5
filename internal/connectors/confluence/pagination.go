package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/custodia-labs/docugraph/internal/logger"
)

// linkRegex matches Link header entries: <url>; rel="type".
var linkRegex = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// Links is the _links section of a collection response.
type Links struct {
	Next string `json:"next"`
	Base string `json:"base"`
}

// envelope is the shape shared by every v2 collection endpoint.
type envelope[T any] struct {
	Results []T   `json:"results"`
	Links   Links `json:"_links"`
}

// NextResolver returns the next page URL, or "" if it has none to offer.
type NextResolver func(header http.Header, links Links) string

// DefaultNextResolvers are tried in order until one yields a URL.
var DefaultNextResolvers = []NextResolver{LinkHeaderNext, BodyLinkNext}

// LinkHeaderNext resolves the rel="next" entry of the Link header.
func LinkHeaderNext(header http.Header, _ Links) string {
	return ParseNextLink(strings.Join(header.Values("Link"), ","))
}

// BodyLinkNext resolves the _links.next field of the response body.
func BodyLinkNext(_ http.Header, links Links) string {
	return strings.TrimSpace(links.Next)
}

// ResolveNext returns the first URL produced by resolvers.
func ResolveNext(resolvers []NextResolver, header http.Header, links Links) string {
	for _, resolve := range resolvers {
		if next := resolve(header, links); next != "" {
			return next
		}
	}
	return ""
}

// ParseNextLink extracts the "next" URL from a Link header.
// Returns empty string if no next link is found.
func ParseNextLink(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}

	for _, part := range strings.Split(linkHeader, ",") {
		matches := linkRegex.FindStringSubmatch(strings.TrimSpace(part))
		if len(matches) == 3 && matches[2] == "next" {
			return matches[1]
		}
	}

	return ""
}

// NormalizeNextURL turns a resolved next link into a request URL.
// A relative link is prefixed with baseURL. Consecutive repeats of any
// trailing block of the base path are then collapsed to one occurrence,
// so "/wiki/wiki/api" becomes "/wiki/api" when the base ends in "/wiki".
func NormalizeNextURL(baseURL, next string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next link %q: %w", next, err)
	}
	if !u.IsAbs() {
		joined := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(next, "/")
		if u, err = url.Parse(joined); err != nil {
			return "", fmt.Errorf("parse next link %q: %w", joined, err)
		}
	}

	u.Path = collapseRepeats(u.Path, pathSegments(base.Path))
	u.RawPath = ""
	return u.String(), nil
}

func pathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func collapseRepeats(p string, baseSegs []string) string {
	if len(baseSegs) == 0 || p == "" {
		return p
	}

	segs := pathSegments(p)
	for changed := true; changed; {
		changed = false
		for n := len(baseSegs); n >= 1; n-- {
			if out, ok := collapseBlock(segs, baseSegs[len(baseSegs)-n:]); ok {
				segs = out
				changed = true
				break
			}
		}
	}

	out := "/" + strings.Join(segs, "/")
	if strings.HasSuffix(p, "/") && out != "/" {
		out += "/"
	}
	return out
}

// collapseBlock removes the second of the first pair of adjacent block occurrences.
func collapseBlock(segs, block []string) ([]string, bool) {
	n := len(block)
	for i := 0; i+2*n <= len(segs); i++ {
		if slices.Equal(segs[i:i+n], block) && slices.Equal(segs[i+n:i+2*n], block) {
			out := make([]string, 0, len(segs)-n)
			out = append(out, segs[:i+n]...)
			out = append(out, segs[i+2*n:]...)
			return out, true
		}
	}
	return segs, false
}

// FetchAll walks a collection endpoint until no next link remains and
// returns every item in arrival order.
//
// Only the first request carries params. Later requests use the resolved
// next URL verbatim, since it already encodes the cursor and the query.
// Any request error aborts the walk and no partial result is returned.
func FetchAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	requestURL := c.endpoint(path, params)
	visited := make(map[string]bool)

	var items []T
	for requestURL != "" {
		if visited[requestURL] {
			logger.Warn("confluence: next link %s was already requested, stopping pagination", requestURL)
			break
		}
		visited[requestURL] = true

		resp, err := c.get(ctx, requestURL)
		if err != nil {
			return nil, err
		}

		var page envelope[T]
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("decode %s: %w", requestURL, err)
		}
		items = append(items, page.Results...)

		next := ResolveNext(c.resolvers, resp.header, page.Links)
		if next == "" {
			break
		}
		if requestURL, err = NormalizeNextURL(c.baseURL, next); err != nil {
			return nil, err
		}
		logger.Debug("confluence: following next link %s", requestURL)
	}

	return items, nil
}

package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return New(Config{
		BaseURL:     baseURL,
		AccessToken: "test-token",
		RateLimiter: NewRateLimiterWithRate(0, 1),
		RetryDelay:  time.Millisecond,
	})
}

type item struct {
	N int `json:"n"`
}

func writeResults(t *testing.T, w http.ResponseWriter, results []item, next string) {
	t.Helper()
	body := map[string]any{"results": results}
	if next != "" {
		body["_links"] = map[string]string{"next": next}
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestParseNextLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty header", header: "", want: ""},
		{name: "single next", header: `<https://x/api/v2/pages?cursor=a>; rel="next"`, want: "https://x/api/v2/pages?cursor=a"},
		{name: "next among others", header: `<https://x/p?page=1>; rel="prev", <https://x/p?page=3>; rel="next"`, want: "https://x/p?page=3"},
		{name: "relative next", header: `</wiki/api/v2/pages?cursor=b>; rel="next"`, want: "/wiki/api/v2/pages?cursor=b"},
		{name: "no next relation", header: `<https://x/p?page=1>; rel="last"`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNextLink(tt.header))
		})
	}
}

func TestResolveNext(t *testing.T) {
	t.Run("link header wins over body link", func(t *testing.T) {
		h := http.Header{}
		h.Set("Link", `</from-header>; rel="next"`)
		got := ResolveNext(DefaultNextResolvers, h, Links{Next: "/from-body"})
		assert.Equal(t, "/from-header", got)
	})

	t.Run("body link used when header absent", func(t *testing.T) {
		got := ResolveNext(DefaultNextResolvers, http.Header{}, Links{Next: "/from-body"})
		assert.Equal(t, "/from-body", got)
	})

	t.Run("neither present stops", func(t *testing.T) {
		assert.Empty(t, ResolveNext(DefaultNextResolvers, http.Header{}, Links{}))
	})
}

func TestNormalizeNextURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		next string
		want string
	}{
		{
			name: "relative link gets base prefix",
			base: "https://example.atlassian.net",
			next: "/api/v2/pages?cursor=x",
			want: "https://example.atlassian.net/api/v2/pages?cursor=x",
		},
		{
			name: "duplicated wiki segment collapses",
			base: "https://example.atlassian.net/wiki",
			next: "/wiki/api/v2/pages?cursor=x",
			want: "https://example.atlassian.net/wiki/api/v2/pages?cursor=x",
		},
		{
			name: "duplicated multi-segment base path collapses",
			base: "https://example.atlassian.net/api/v2/pages",
			next: "/api/v2/pages/api/v2/pages?cursor=x",
			want: "https://example.atlassian.net/api/v2/pages?cursor=x",
		},
		{
			name: "absolute link with duplicate is corrected",
			base: "https://example.atlassian.net/wiki",
			next: "https://example.atlassian.net/wiki/wiki/api/v2/spaces?cursor=y",
			want: "https://example.atlassian.net/wiki/api/v2/spaces?cursor=y",
		},
		{
			name: "clean absolute link is unchanged",
			base: "https://example.atlassian.net/wiki",
			next: "https://example.atlassian.net/wiki/api/v2/pages/7/children?cursor=z",
			want: "https://example.atlassian.net/wiki/api/v2/pages/7/children?cursor=z",
		},
		{
			name: "base with trailing slash",
			base: "https://example.atlassian.net/wiki/",
			next: "wiki/api/v2/pages?cursor=x",
			want: "https://example.atlassian.net/wiki/api/v2/pages?cursor=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNextURL(tt.base, tt.next)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchAll_CollectsEveryPageInOrder(t *testing.T) {
	const pageSize = 100
	const total = 337

	var mu sync.Mutex
	var queries []url.Values

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()

		offset := 0
		if c := r.URL.Query().Get("cursor"); c != "" {
			_, err := fmt.Sscanf(c, "%d", &offset)
			require.NoError(t, err)
		}

		end := offset + pageSize
		if end > total {
			end = total
		}
		results := make([]item, 0, end-offset)
		for i := offset; i < end; i++ {
			results = append(results, item{N: i})
		}

		if end < total {
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v2/pages?cursor=%d>; rel="next"`, server.URL, end))
		}
		writeResults(t, w, results, "")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	params := url.Values{"limit": {"100"}, "spaceId": {"S1"}}

	items, err := FetchAll[item](context.Background(), client, "/api/v2/pages", params)
	require.NoError(t, err)

	require.Len(t, items, total)
	for i, it := range items {
		assert.Equal(t, i, it.N, "item %d out of order", i)
	}

	require.Len(t, queries, 4)
	assert.Equal(t, "S1", queries[0].Get("spaceId"), "first request carries params")
	for _, q := range queries[1:] {
		assert.Empty(t, q.Get("spaceId"), "params must not be re-sent after the first request")
		assert.Empty(t, q.Get("limit"))
		assert.NotEmpty(t, q.Get("cursor"))
	}
}

func TestFetchAll_BodyLinkWithDuplicatedBasePath(t *testing.T) {
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Query().Get("cursor") == "" {
			writeResults(t, w, []item{{N: 1}}, "/wiki/api/v2/spaces?cursor=2")
			return
		}
		writeResults(t, w, []item{{N: 2}}, "")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/wiki")

	items, err := FetchAll[item](context.Background(), client, "/api/v2/spaces", url.Values{"limit": {"100"}})
	require.NoError(t, err)

	assert.Equal(t, []item{{N: 1}, {N: 2}}, items)
	assert.Equal(t, []string{"/wiki/api/v2/spaces", "/wiki/api/v2/spaces"}, paths)
}

func TestFetchAll_StopsOnRepeatedNextLink(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeResults(t, w, []item{{N: requests}}, "/api/v2/spaces?cursor=same")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := FetchAll[item](context.Background(), client, "/api/v2/spaces", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, requests, "second request repeats the cursor URL and ends the walk")
	assert.Len(t, items, 2)
}

func TestFetchAll_ErrorAbortsWalk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			writeResults(t, w, []item{{N: 1}}, "/api/v2/spaces?cursor=2")
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := FetchAll[item](context.Background(), client, "/api/v2/spaces", nil)
	require.Error(t, err)
	assert.Nil(t, items, "accumulated items are not reported on failure")
	assert.True(t, IsForbidden(err))
}

func TestFetchAll_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := FetchAll[item](context.Background(), newTestClient(t, server.URL), "/api/v2/spaces", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

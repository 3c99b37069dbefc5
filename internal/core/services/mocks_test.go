package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockWiki implements driven.WikiClient over an in-memory page tree.
type mockWiki struct {
	mu sync.Mutex

	spaces   []domain.Space
	top      map[string][]string // space id -> top-level page ids
	children map[string][]string // page id -> child page ids
	pages    map[string]domain.Page

	listSpacesErr error
	getErr        map[string]error
	childrenErr   map[string]error

	// blockGet, when set, stalls GetPage until it is closed.
	blockGet chan struct{}

	getCalls map[string]int
}

var _ driven.WikiClient = (*mockWiki)(nil)

func newMockWiki() *mockWiki {
	return &mockWiki{
		top:         make(map[string][]string),
		children:    make(map[string][]string),
		pages:       make(map[string]domain.Page),
		getErr:      make(map[string]error),
		childrenErr: make(map[string]error),
		getCalls:    make(map[string]int),
	}
}

// addSpace registers a space.
func (w *mockWiki) addSpace(id, key, name string) {
	w.spaces = append(w.spaces, domain.Space{ID: id, Key: key, Name: name})
}

// addPage registers a page under parent, or at the top of space when parent is empty.
func (w *mockWiki) addPage(spaceID, parent, id, title, markup string) {
	w.pages[id] = domain.Page{
		ID:      id,
		Title:   title,
		SpaceID: spaceID,
		Body:    domain.PageBody{Kind: domain.BodyInline, Markup: markup},
	}
	if parent == "" {
		w.top[spaceID] = append(w.top[spaceID], id)
		return
	}
	w.children[parent] = append(w.children[parent], id)
}

// link adds an existing page as an extra child of parent.
func (w *mockWiki) link(parent, id string) {
	w.children[parent] = append(w.children[parent], id)
}

func (w *mockWiki) refs(ids []string) []domain.Page {
	out := make([]domain.Page, 0, len(ids))
	for _, id := range ids {
		p := w.pages[id]
		out = append(out, domain.Page{ID: p.ID, Title: p.Title})
	}
	return out
}

func (w *mockWiki) ListSpaces(_ context.Context) ([]domain.Space, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listSpacesErr != nil {
		return nil, w.listSpacesErr
	}
	return append([]domain.Space(nil), w.spaces...), nil
}

func (w *mockWiki) ListPages(_ context.Context, spaceID string) ([]domain.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs(w.top[spaceID]), nil
}

func (w *mockWiki) GetPage(ctx context.Context, pageID string) (domain.Page, error) {
	if w.blockGet != nil {
		select {
		case <-w.blockGet:
		case <-ctx.Done():
			return domain.Page{}, ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.getCalls[pageID]++
	if err := w.getErr[pageID]; err != nil {
		return domain.Page{}, err
	}
	p, ok := w.pages[pageID]
	if !ok {
		return domain.Page{}, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}
	return p, nil
}

func (w *mockWiki) ListChildren(_ context.Context, pageID string) ([]domain.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.childrenErr[pageID]; err != nil {
		return nil, err
	}
	return w.refs(w.children[pageID]), nil
}

func (w *mockWiki) totalGetCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, n := range w.getCalls {
		total += n
	}
	return total
}

// plainExtractor returns the markup unchanged.
type plainExtractor struct{}

func (plainExtractor) Extract(body domain.PageBody) string {
	if body.IsEmpty() {
		return ""
	}
	return body.Markup
}

// mockEmbedder implements driven.EmbeddingService with deterministic vectors.
// Each vector is the lower-cased letter histogram of the text folded into dims.
type mockEmbedder struct {
	dims     int
	embedErr error

	mu      sync.Mutex
	batches []int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[int(r-'a')%m.dims]++
		}
	}
	v[m.dims-1] += 0.01
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockRows implements driven.RowSource.
type mockRows struct {
	tables map[string][]map[string]any
}

var _ driven.RowSource = (*mockRows)(nil)

var errNoTable = errors.New("relation does not exist")

func (m *mockRows) Rows(_ context.Context, table string) ([]map[string]any, error) {
	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, errNoTable)
	}
	return rows, nil
}

func (m *mockRows) Close() error { return nil }

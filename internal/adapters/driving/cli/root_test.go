package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docugraph/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/random"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/services"
	"github.com/custodia-labs/docugraph/internal/logger"
	"github.com/custodia-labs/docugraph/internal/normalisers/storage"
)

// stubWiki serves one space with a page and its child.
type stubWiki struct{}

var _ driven.WikiClient = stubWiki{}

func (stubWiki) ListSpaces(context.Context) ([]domain.Space, error) {
	return []domain.Space{{ID: "s1", Key: "ENG", Name: "Engineering"}}, nil
}

func (stubWiki) ListPages(_ context.Context, spaceID string) ([]domain.Page, error) {
	if spaceID != "s1" {
		return nil, nil
	}
	return []domain.Page{{ID: "1", Title: "Runbook"}}, nil
}

func (stubWiki) GetPage(_ context.Context, pageID string) (domain.Page, error) {
	bodies := map[string]string{
		"1": "<p>restart the vpn gateway</p>",
		"2": "<p>pager rotation schedule</p>",
	}
	titles := map[string]string{"1": "Runbook", "2": "On-call"}
	markup, ok := bodies[pageID]
	if !ok {
		return domain.Page{}, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}
	return domain.Page{
		ID:      pageID,
		Title:   titles[pageID],
		SpaceID: "s1",
		Body:    domain.PageBody{Kind: domain.BodyInline, Markup: markup},
	}, nil
}

func (stubWiki) ListChildren(_ context.Context, pageID string) ([]domain.Page, error) {
	if pageID == "1" {
		return []domain.Page{{ID: "2", Title: "On-call"}}, nil
	}
	return nil, nil
}

// stubRows serves fixed tables.
type stubRows struct {
	tables map[string][]map[string]any
}

func (r stubRows) Rows(_ context.Context, table string) ([]map[string]any, error) {
	rows, ok := r.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, domain.ErrNotFound)
	}
	return rows, nil
}

func (stubRows) Close() error { return nil }

type testEnv struct {
	store    *memory.GraphStore
	settings *services.SettingsService
	services *Services
}

// setupTestServices injects services over an in-memory store and a settings
// service over a temp config file. Package state is restored on cleanup.
func setupTestServices(t *testing.T, rows driven.RowSource) *testEnv {
	t.Helper()

	configStore, err := file.NewConfigStoreAt(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	settings := services.NewSettingsService(configStore).WithEnv(func(string) string { return "" })

	store := memory.NewGraphStore()
	embedder := random.NewEmbeddingService(random.Config{Dimensions: 8})
	index := services.NewIndexStore(store, embedder, 0)
	wiki := stubWiki{}

	svc := &Services{
		Index:    index,
		Backfill: index,
		Refresh: services.NewRefreshService(index, wiki, services.NewCrawler(wiki, storage.New(), 1),
			domain.ConfluenceProfile(), true),
		Search: services.NewSearchService(store, embedder),
	}
	if rows != nil {
		svc.Ingest = services.NewIngestService(store, rows)
	}

	oldSettings, oldServices, oldWiring := settingsService, connected, wiring
	SetSettingsService(settings)
	SetServices(svc)
	wiring = nil
	logger.SetOutput(io.Discard)
	resetFlags()

	t.Cleanup(func() {
		settingsService, connected, wiring = oldSettings, oldServices, oldWiring
		ownsServices = false
		logger.SetOutput(os.Stderr)
		resetFlags()
	})

	return &testEnv{store: store, settings: settings, services: svc}
}

// resetFlags restores command flags changed by an earlier run.
func resetFlags() {
	storeKind = StoreNeo4j
	refreshSpace, refreshNoKeyword = "", false
	backfillBatch = 0
	ingestTables, ingestClear = nil, false
	indexesNoKeyword = false
	searchLimit, searchJSON, searchMode = domain.DefaultSearchLimit, false, string(domain.SearchModeHybrid)
	for _, c := range []*cobra.Command{backfillCmd, ingestCmd, indexesEnsureCmd, indexesValidateCmd, searchCmd} {
		f := c.Flags().Lookup("profile")
		_ = f.Value.Set(f.DefValue)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

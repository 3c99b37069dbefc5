// Package bootstrap builds the adapters named by the settings and wires them
// into the core services driven by the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docugraph/internal/adapters/driven/ai"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/relational"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/storage/neo4j"
	"github.com/custodia-labs/docugraph/internal/adapters/driving/cli"
	"github.com/custodia-labs/docugraph/internal/connectors/confluence"
	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/core/services"
	"github.com/custodia-labs/docugraph/internal/logger"
	"github.com/custodia-labs/docugraph/internal/normalisers/storage"
)

// Wiring returns the builders the CLI uses to open settings and services.
func Wiring() *cli.Wiring {
	return &cli.Wiring{
		OpenSettings:   OpenSettings,
		Connect:        Connect,
		CheckEmbedding: CheckEmbedding,
	}
}

// OpenSettings opens the config file at path, or ~/.docugraph/config.toml
// when path is empty.
func OpenSettings(path string) (driving.SettingsService, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if path == "" {
		store, err = file.NewConfigStore("")
	} else {
		store, err = file.NewConfigStoreAt(path)
	}
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// CheckEmbedding pings the configured embedding provider.
func CheckEmbedding(_ context.Context, settings domain.EmbeddingSettings) error {
	return ai.ValidateEmbeddingConfig(settings)
}

// Connect opens the graph store, the embedder, the wiki client and, when
// asked, the relational source, then builds the services over them.
func Connect(ctx context.Context, settings domain.Settings, opts cli.ConnectOptions) (*cli.Services, error) {
	store, err := openStore(ctx, settings.Store, opts.Store)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	query, err := ai.CreateQueryEmbeddingService(settings.Embedding)
	if err != nil {
		if !errors.Is(err, domain.ErrNotConfigured) {
			_ = embedder.Close()
			_ = store.Close(ctx)
			return nil, fmt.Errorf("query embedding service: %w", err)
		}
		logger.Debug("search: vector mode disabled, %v", err)
	}

	var rows driven.RowSource
	if opts.Relational && settings.Relational.IsConfigured() {
		source, err := relational.Open(ctx, settings.Relational.Driver, settings.Relational.DSN)
		if err != nil {
			_ = closeEmbedders(embedder, query)
			_ = store.Close(ctx)
			return nil, err
		}
		rows = source
	}

	return Build(settings, store, Embedders{Ingest: embedder, Query: query}, rows, opts.Keyword), nil
}

// Embedders are the two embedding services a run needs. Ingest falls back to
// random vectors; Query is the bare provider and is nil when no credential
// is configured.
type Embedders struct {
	Ingest driven.EmbeddingService
	Query  driven.EmbeddingService
}

func closeEmbedders(ingest, query driven.EmbeddingService) error {
	errs := []error{ingest.Close()}
	if query != nil {
		errs = append(errs, query.Close())
	}
	return errors.Join(errs...)
}

// Build wires the core services over already opened adapters. rows may be nil.
func Build(
	settings domain.Settings,
	store driven.GraphStore,
	embedders Embedders,
	rows driven.RowSource,
	keyword bool,
) *cli.Services {
	wiki := confluence.New(confluence.ConfigFromSettings(settings.Confluence))
	return BuildWith(settings, store, embedders, wiki, rows, keyword)
}

// BuildWith is Build with an explicit wiki client.
func BuildWith(
	settings domain.Settings,
	store driven.GraphStore,
	embedders Embedders,
	wiki driven.WikiClient,
	rows driven.RowSource,
	keyword bool,
) *cli.Services {
	index := services.NewIndexStore(store, embedders.Ingest, settings.Backfill.BatchSize)
	crawler := services.NewCrawler(wiki, storage.New(), settings.Crawl.Workers)

	s := &cli.Services{
		Index:    index,
		Backfill: index,
		Refresh:  services.NewRefreshService(index, wiki, crawler, domain.ConfluenceProfile(), keyword),
		Search:   services.NewSearchService(store, embedders.Query),
	}
	if rows != nil {
		s.Ingest = services.NewIngestService(store, rows)
	}

	s.Close = func(ctx context.Context) error {
		var errs []error
		if rows != nil {
			errs = append(errs, rows.Close())
		}
		errs = append(errs, closeEmbedders(embedders.Ingest, embedders.Query), store.Close(ctx))
		return errors.Join(errs...)
	}
	return s
}

func openStore(ctx context.Context, settings domain.StoreSettings, kind string) (driven.GraphStore, error) {
	switch kind {
	case cli.StoreMemory:
		logger.Warn("graph store: using the in-memory store, nothing is persisted")
		return memory.NewGraphStore(), nil

	case cli.StoreNeo4j, "":
		runner, err := neo4j.Open(ctx, neo4j.Config{
			URI:      settings.URI,
			Username: settings.Username,
			Password: settings.Password,
			Database: settings.Database,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("graph store: connected to %s", settings.URI)
		return neo4j.NewStore(runner), nil

	default:
		return nil, fmt.Errorf("graph store %q: %w", kind, domain.ErrInvalidInput)
	}
}

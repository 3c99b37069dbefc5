package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyConfluenceBaseURL   = "confluence.base_url"
	KeyConfluenceToken     = "confluence.access_token"
	KeyConfluenceSpaceKey  = "confluence.space_key"
	KeyConfluencePageLimit = "confluence.page_limit"
	KeyStoreURI            = "neo4j.uri"
	KeyStoreUsername       = "neo4j.username"
	KeyStorePassword       = "neo4j.password"
	KeyStoreDatabase       = "neo4j.database"
	KeyEmbedProvider       = "embedding.provider"
	KeyEmbedModel          = "embedding.model"
	KeyEmbedBaseURL        = "embedding.base_url"
	KeyEmbedAPIKey         = "embedding.api_key"
	KeyEmbedDimensions     = "embedding.dimensions"
	KeyBackfillBatchSize   = "backfill.batch_size"
	KeyCrawlWorkers        = "crawl.workers"
	KeyRelationalDriver    = "relational.driver"
	KeyRelationalDSN       = "relational.dsn"
	KeyRelationalTables    = "relational.tables"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvConfluenceBaseURL = "CONFLUENCE_BASE_URL"
	EnvConfluenceToken   = "CONFLUENCE_ACCESS_TOKEN"
	EnvTargetSpaceKey    = "TARGET_SPACE_KEY"
	EnvNeo4jURI          = "NEO4J_URI"
	EnvNeo4jAuth         = "NEO4J_AUTH"
	EnvNeo4jDatabase     = "NEO4J_DATABASE"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvEmbedProvider     = "EMBEDDING_PROVIDER"
	EnvEmbedModel        = "EMBEDDING_MODEL"
	EnvEmbedDimensions   = "EMBEDDING_DIMENSIONS"
	EnvOllamaBaseURL     = "OLLAMA_BASE_URL"
	EnvBackfillBatchSize = "BACKFILL_BATCH_SIZE"
	EnvCrawlWorkers      = "CRAWL_WORKERS"
	EnvPostgresDSN       = "POSTGRES_DSN"
)

// SettingsService assembles settings from defaults, the config file and the
// environment, in that order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service reading os.Getenv.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore, getenv: os.Getenv}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(getenv func(string) string) *SettingsService {
	s.getenv = getenv
	return s
}

// Load returns the effective settings.
func (s *SettingsService) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()
	s.applyConfig(&settings)
	if err := s.applyEnv(&settings); err != nil {
		return settings, err
	}
	if !settings.Embedding.Provider.IsValid() {
		return settings, fmt.Errorf("embedding provider %q: %w", settings.Embedding.Provider, domain.ErrInvalidInput)
	}

	// A provider change without an explicit model picks that provider's default.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.Dimensions < 1 {
		settings.Embedding.Dimensions = settings.Embedding.ResolvedDimensions()
	}
	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = domain.DefaultOllamaBaseURL
	}
	return settings, nil
}

// Set persists a single key.
func (s *SettingsService) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) applyConfig(settings *domain.Settings) {
	c := &settings.Confluence
	c.BaseURL = s.getString(KeyConfluenceBaseURL, c.BaseURL)
	c.AccessToken = s.getString(KeyConfluenceToken, c.AccessToken)
	c.SpaceKey = s.getString(KeyConfluenceSpaceKey, c.SpaceKey)
	c.PageLimit = s.getInt(KeyConfluencePageLimit, c.PageLimit)

	st := &settings.Store
	st.URI = s.getString(KeyStoreURI, st.URI)
	st.Username = s.getString(KeyStoreUsername, st.Username)
	st.Password = s.getString(KeyStorePassword, st.Password)
	st.Database = s.getString(KeyStoreDatabase, st.Database)

	e := &settings.Embedding
	if p := s.configStore.GetString(KeyEmbedProvider); p != "" {
		e.Provider = domain.AIProvider(p)
		e.Model = ""
	}
	e.Model = s.getString(KeyEmbedModel, e.Model)
	e.BaseURL = s.getString(KeyEmbedBaseURL, e.BaseURL)
	e.APIKey = s.getString(KeyEmbedAPIKey, e.APIKey)
	// Unset dimensions are resolved from the model once everything is applied.
	e.Dimensions = s.configStore.GetInt(KeyEmbedDimensions)

	settings.Backfill.BatchSize = s.getInt(KeyBackfillBatchSize, settings.Backfill.BatchSize)
	settings.Crawl.Workers = s.getInt(KeyCrawlWorkers, settings.Crawl.Workers)

	r := &settings.Relational
	r.Driver = s.getString(KeyRelationalDriver, r.Driver)
	r.DSN = s.getString(KeyRelationalDSN, r.DSN)
	if tables := s.configStore.GetStringSlice(KeyRelationalTables); len(tables) > 0 {
		r.Tables = tables
	}
}

func (s *SettingsService) applyEnv(settings *domain.Settings) error {
	env := func(name string) (string, bool) {
		v := strings.TrimSpace(s.getenv(name))
		return v, v != ""
	}

	if v, ok := env(EnvConfluenceBaseURL); ok {
		settings.Confluence.BaseURL = v
	}
	if v, ok := env(EnvConfluenceToken); ok {
		settings.Confluence.AccessToken = v
	}
	if v, ok := env(EnvTargetSpaceKey); ok {
		settings.Confluence.SpaceKey = v
	}

	if v, ok := env(EnvNeo4jURI); ok {
		settings.Store.URI = v
	}
	if v, ok := env(EnvNeo4jAuth); ok {
		settings.Store.Username, settings.Store.Password = domain.ParseAuth(v)
	}
	if v, ok := env(EnvNeo4jDatabase); ok {
		settings.Store.Database = v
	}

	if v, ok := env(EnvEmbedProvider); ok {
		provider := domain.AIProvider(strings.ToLower(v))
		if !provider.IsValid() {
			return fmt.Errorf("%s=%q: %w", EnvEmbedProvider, v, domain.ErrInvalidInput)
		}
		if provider != settings.Embedding.Provider {
			settings.Embedding.Provider = provider
			settings.Embedding.Model = ""
		}
	}
	if v, ok := env(EnvEmbedModel); ok {
		settings.Embedding.Model = v
	}
	if v, ok := env(EnvOpenAIAPIKey); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := env(EnvOllamaBaseURL); ok {
		settings.Embedding.BaseURL = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvEmbedDimensions, &settings.Embedding.Dimensions},
		{EnvBackfillBatchSize, &settings.Backfill.BatchSize},
		{EnvCrawlWorkers, &settings.Crawl.Workers},
	}
	for _, i := range ints {
		v, ok := env(i.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s=%q: must be a positive integer: %w", i.name, v, domain.ErrInvalidInput)
		}
		*i.dst = n
	}

	if v, ok := env(EnvPostgresDSN); ok {
		settings.Relational.Driver = "pgx"
		settings.Relational.DSN = v
	}
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return defaultVal
}

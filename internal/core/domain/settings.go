package domain

import "strings"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// ConfluenceSettings locates the wiki.
type ConfluenceSettings struct {
	// BaseURL is the API root, e.g. https://example.atlassian.net/wiki.
	BaseURL string

	// AccessToken is the bearer credential.
	AccessToken string

	// SpaceKey restricts the crawl to a single space when set.
	SpaceKey string

	// PageLimit is the page size requested from collection endpoints.
	PageLimit int
}

// IsConfigured returns true if both the URL and the credential are present.
func (c ConfluenceSettings) IsConfigured() bool {
	return c.BaseURL != "" && c.AccessToken != ""
}

// StoreSettings locates the graph store.
type StoreSettings struct {
	URI      string
	Username string
	Password string
	Database string
}

// ParseAuth splits a "user/password" pair. A value without a slash is a
// username with an empty password.
func ParseAuth(auth string) (user, password string) {
	user, password, _ = strings.Cut(auth, "/")
	return user, password
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector length every stored embedding must have.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns the configured dimension, falling back to the
// model's known size and then to DefaultDimensions.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	if d, ok := EmbeddingDimensions()[e.Model]; ok {
		return d
	}
	return DefaultDimensions
}

// BackfillSettings tunes the backfill loop.
type BackfillSettings struct {
	BatchSize int
}

// CrawlSettings tunes the crawler.
type CrawlSettings struct {
	// Workers is the number of spaces crawled concurrently.
	Workers int
}

// RelationalSettings locates the relational source.
type RelationalSettings struct {
	// Driver is the database/sql driver name: "pgx" or "sqlite".
	Driver string
	DSN    string
	Tables []string
}

// IsConfigured returns true if a DSN is set.
func (r RelationalSettings) IsConfigured() bool {
	return r.DSN != ""
}

// Settings is the explicit configuration passed to every component.
type Settings struct {
	Confluence ConfluenceSettings
	Store      StoreSettings
	Embedding  EmbeddingSettings
	Backfill   BackfillSettings
	Crawl      CrawlSettings
	Relational RelationalSettings
}

// Defaults used when configuration leaves a value unset.
const (
	DefaultStoreURI      = "bolt://neo4j:7687"
	DefaultDimensions    = 1536
	DefaultBatchSize     = 1000
	DefaultPageLimit     = 100
	DefaultCrawlWorkers  = 1
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// DefaultSettings returns settings with sensible defaults.
// Credentials are left unset.
func DefaultSettings() Settings {
	return Settings{
		Confluence: ConfluenceSettings{
			PageLimit: DefaultPageLimit,
		},
		Store: StoreSettings{
			URI: DefaultStoreURI,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenAI,
			Model:      DefaultEmbeddingModels()[AIProviderOpenAI],
			Dimensions: DefaultDimensions,
		},
		Backfill: BackfillSettings{
			BatchSize: DefaultBatchSize,
		},
		Crawl: CrawlSettings{
			Workers: DefaultCrawlWorkers,
		},
		Relational: RelationalSettings{
			Driver: "pgx",
			Tables: DefaultIngestTables(),
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

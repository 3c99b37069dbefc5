// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/random"
	"github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/resilient"
	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService builds the embedding service used by the pipeline.
//
// When no provider credential is configured it returns the random fallback
// alone and logs a warning. Otherwise the provider is wrapped so that any
// backend failure degrades to random vectors of the same dimension. The
// returned service always reports settings.ResolvedDimensions().
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := settings.ResolvedDimensions()
	fallback := random.NewEmbeddingService(random.Config{Dimensions: dimensions})

	if !settings.IsConfigured() {
		logger.Warn("embedding: no provider credential configured, using random %d-dimension vectors", dimensions)
		return fallback, nil
	}

	primary, err := createPrimary(settings, dimensions)
	if err != nil {
		return nil, err
	}

	return resilient.New(primary, fallback, dimensions), nil
}

// CreateQueryEmbeddingService builds the provider used to embed search
// queries. It has no fallback: a query embedded with random vectors matches
// arbitrary nodes, so backend failures reach the caller. Without a provider
// credential it returns an error wrapping domain.ErrNotConfigured.
func CreateQueryEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("query embedding provider: %w", domain.ErrNotConfigured)
	}
	return createPrimary(settings, settings.ResolvedDimensions())
}

// ValidateEmbeddingConfig creates the configured provider and pings it.
// Unlike CreateEmbeddingService it reports backend problems to the caller.
func ValidateEmbeddingConfig(settings domain.EmbeddingSettings) error {
	if !settings.IsConfigured() {
		return fmt.Errorf("embedding provider: %w", domain.ErrNotConfigured)
	}

	svc, err := createPrimary(settings, settings.ResolvedDimensions())
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

func createPrimary(settings domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, dimensions), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, dimensions)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings domain.EmbeddingSettings, dimensions int) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// Package random provides an embedding service that returns random vectors.
// It needs no credentials and is used when no real provider is configured
// or as the fallback behind a real provider.
package random

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelName is reported by every random embedding service.
const ModelName = "random"

// Config holds configuration for the random embedding service.
type Config struct {
	// Dimensions is the vector length (default: 1536).
	Dimensions int

	// Seed makes output reproducible when non-zero.
	Seed uint64
}

// EmbeddingService produces vectors whose components are uniform in [0,1).
type EmbeddingService struct {
	mu         sync.Mutex
	rng        *rand.Rand
	dimensions int
}

// NewEmbeddingService creates a random embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultDimensions
	}

	var src rand.Source
	if cfg.Seed != 0 {
		src = rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &EmbeddingService{
		rng:        rand.New(src),
		dimensions: cfg.Dimensions,
	}
}

// Embed returns a fresh random vector. The text is ignored.
func (s *EmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vector(), nil
}

// EmbedBatch returns one random vector per text.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector()
	}
	return out, nil
}

func (s *EmbeddingService) vector() []float32 {
	v := make([]float32, s.dimensions)
	for i := range v {
		v[i] = s.rng.Float32()
	}
	return v
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "random".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

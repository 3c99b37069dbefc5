// Package resilient wraps an embedding service with a fallback so callers
// always receive a vector of the expected shape.
package resilient

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService delegates to a primary service and substitutes the
// fallback's output whenever the primary fails or returns the wrong shape.
// Embed and EmbedBatch only return an error when ctx is done.
type EmbeddingService struct {
	primary    driven.EmbeddingService
	fallback   driven.EmbeddingService
	dimensions int
}

// New wraps primary. dimensions is the vector length callers expect; when
// zero the primary's reported dimension is used.
func New(primary, fallback driven.EmbeddingService, dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = primary.Dimensions()
	}
	return &EmbeddingService{
		primary:    primary,
		fallback:   fallback,
		dimensions: dimensions,
	}
}

// Embed returns the primary's vector, or a fallback vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.primary.Embed(ctx, text)
	if err == nil && len(vector) != s.dimensions {
		err = fmt.Errorf("got %d dimensions, want %d", len(vector), s.dimensions)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("embedding: %s failed, using fallback: %v", s.primary.ModelName(), err)
		return s.fallbackOne(ctx, text), nil
	}
	return vector, nil
}

// EmbedBatch returns one vector per text. If the primary fails the whole
// batch comes from the fallback.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.primary.EmbedBatch(ctx, texts)
	if err == nil {
		err = s.checkShape(vectors, len(texts))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("embedding: %s batch of %d failed, using fallback: %v", s.primary.ModelName(), len(texts), err)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = s.fallbackOne(ctx, text)
		}
		return out, nil
	}
	return vectors, nil
}

func (s *EmbeddingService) checkShape(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("got %d vectors for %d texts", len(vectors), want)
	}
	for i, v := range vectors {
		if len(v) != s.dimensions {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), s.dimensions)
		}
	}
	return nil
}

// fallbackOne never fails; a misbehaving fallback yields a zero vector.
func (s *EmbeddingService) fallbackOne(ctx context.Context, text string) []float32 {
	vector, err := s.fallback.Embed(ctx, text)
	if err != nil || len(vector) != s.dimensions {
		logger.Error("embedding: fallback %s returned no usable vector", s.fallback.ModelName())
		return make([]float32, s.dimensions)
	}
	return vector
}

// Dimensions returns the vector length guaranteed to callers.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the primary's model name.
func (s *EmbeddingService) ModelName() string {
	return s.primary.ModelName()
}

// Ping checks the primary. A failure here does not stop Embed from working.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx)
}

// Close closes both services.
func (s *EmbeddingService) Close() error {
	perr := s.primary.Close()
	ferr := s.fallback.Close()
	if perr != nil {
		return perr
	}
	return ferr
}

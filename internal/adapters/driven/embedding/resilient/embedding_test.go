package resilient

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docugraph/internal/adapters/driven/embedding/random"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// stubEmbedder returns fixed vectors or a fixed error.
type stubEmbedder struct {
	vector []float32
	batch  [][]float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

func (s *stubEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	s.calls++
	return s.batch, s.err
}

func (s *stubEmbedder) Dimensions() int            { return len(s.vector) }
func (s *stubEmbedder) ModelName() string          { return "stub" }
func (s *stubEmbedder) Ping(context.Context) error { return s.err }
func (s *stubEmbedder) Close() error               { return nil }

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

func TestEmbed_PrimarySucceeds(t *testing.T) {
	primary := &stubEmbedder{vector: []float32{1, 2, 3}}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 3}), 3)

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v)
}

func TestEmbed_FallbackOnError(t *testing.T) {
	logs := captureLogs(t)
	primary := &stubEmbedder{vector: []float32{0, 0, 0}, err: errors.New("quota exceeded")}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 3}), 3)

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, v, 3)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, float32(0))
		assert.Less(t, x, float32(1))
	}
	assert.Contains(t, logs.String(), "quota exceeded")
}

func TestEmbed_FallbackOnWrongLength(t *testing.T) {
	captureLogs(t)
	primary := &stubEmbedder{vector: []float32{1, 2}}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 4}), 4)

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 4)
}

func TestEmbedBatch_FallbackOnShapeMismatch(t *testing.T) {
	captureLogs(t)

	tests := []struct {
		name  string
		batch [][]float32
		err   error
	}{
		{name: "error", err: errors.New("down")},
		{name: "too few vectors", batch: [][]float32{{1, 1}}},
		{name: "wrong vector length", batch: [][]float32{{1, 1}, {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubEmbedder{vector: []float32{0, 0}, batch: tt.batch, err: tt.err}
			svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 2}), 2)

			vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
			require.NoError(t, err)
			require.Len(t, vectors, 2)
			for _, v := range vectors {
				assert.Len(t, v, 2)
			}
		})
	}
}

func TestEmbedBatch_PrimarySucceeds(t *testing.T) {
	primary := &stubEmbedder{vector: []float32{0, 0}, batch: [][]float32{{1, 2}, {3, 4}}}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 2}), 0)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vectors)
	assert.Equal(t, 2, svc.Dimensions(), "zero dimensions takes the primary's")
}

func TestFallbackFailureYieldsZeroVector(t *testing.T) {
	captureLogs(t)
	primary := &stubEmbedder{vector: []float32{0, 0}, err: errors.New("down")}
	fallback := &stubEmbedder{vector: []float32{0}, err: errors.New("also down")}
	svc := New(primary, fallback, 2)

	v, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, v)
}

func TestMetadata(t *testing.T) {
	primary := &stubEmbedder{vector: []float32{0}}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 1}), 1)

	assert.Equal(t, "stub", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbed_CancellationIsNotReplaced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubEmbedder{vector: []float32{0, 0, 0}, err: context.Canceled}
	svc := New(primary, random.NewEmbeddingService(random.Config{Dimensions: 3}), 3)

	v, err := svc.Embed(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, v)

	vectors, err := svc.EmbedBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, vectors)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Backfill embeds every pending node of the profile's label in batches of
// batchCap. A batch smaller than batchCap ends the run, which relies on the
// store filling batches eagerly. An interrupted run resumes on the next
// call since only unset embeddings are selected.
func (s *IndexStore) Backfill(
	ctx context.Context, profile domain.IndexProfile, batchCap int,
) (*domain.BackfillSummary, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if batchCap <= 0 {
		batchCap = s.batchSize
	}

	start := time.Now()
	summary := &domain.BackfillSummary{Label: profile.Label}
	defer func() { summary.Duration = time.Since(start) }()

	logger.Section("Backfill " + profile.Label)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, err := s.store.PendingEmbeddings(ctx, profile.Label, profile.EmbeddingProperty, profile.TextProperties, batchCap)
		if err != nil {
			return summary, fmt.Errorf("fetch pending batch: %w", err)
		}
		if len(batch) == 0 {
			logger.Info("Backfill of %s complete", profile.Label)
			return summary, nil
		}
		summary.Batches = append(summary.Batches, len(batch))

		texts := make([]string, len(batch))
		for i, node := range batch {
			texts[i] = profile.ComposeText(node.Properties)
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return summary, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return summary, fmt.Errorf("embed batch: got %d vectors for %d nodes", len(vectors), len(batch))
		}

		updates := make([]domain.EmbeddingUpdate, len(batch))
		for i, node := range batch {
			updates[i] = domain.EmbeddingUpdate{ElementID: node.ElementID, Vector: vectors[i]}
		}

		written, err := s.store.SetEmbeddings(ctx, profile.Label, profile.EmbeddingProperty, updates)
		if err != nil {
			return summary, fmt.Errorf("write embeddings: %w", err)
		}
		summary.NodesEmbedded += written
		logger.Info("Backfill batch %d: %d nodes embedded", len(summary.Batches), written)

		// Nothing written means the same nodes would be selected again.
		if written == 0 {
			return summary, fmt.Errorf("write embeddings: none of %d nodes updated", len(batch))
		}
		if written < len(batch) {
			logger.Warn("Backfill batch %d: %d of %d nodes no longer present", len(summary.Batches), len(batch)-written, len(batch))
		}

		if len(batch) < batchCap {
			logger.Info("Backfill of %s complete", profile.Label)
			return summary, nil
		}
	}
}

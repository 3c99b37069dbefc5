package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure IndexStore implements the interfaces.
var (
	_ driving.IndexService    = (*IndexStore)(nil)
	_ driving.BackfillService = (*IndexStore)(nil)
)

// IndexStore owns the index lifecycle of the graph store and the backfill
// write mode. Vector index dimensions are checked against the embedder.
type IndexStore struct {
	store     driven.GraphStore
	embedder  driven.EmbeddingService
	batchSize int
}

// NewIndexStore creates an index store. batchSize is the default backfill
// batch cap; values below 1 use domain.DefaultBatchSize.
func NewIndexStore(store driven.GraphStore, embedder driven.EmbeddingService, batchSize int) *IndexStore {
	if batchSize < 1 {
		batchSize = domain.DefaultBatchSize
	}
	return &IndexStore{store: store, embedder: embedder, batchSize: batchSize}
}

// indexState is what Validate found in the store.
type indexState struct {
	vectorExists   bool
	fulltextExists bool
}

// Validate checks existing indexes without creating anything.
func (s *IndexStore) Validate(ctx context.Context, profile domain.IndexProfile, hybrid bool) error {
	_, err := s.validate(ctx, profile, hybrid)
	return err
}

func (s *IndexStore) validate(ctx context.Context, profile domain.IndexProfile, hybrid bool) (indexState, error) {
	var state indexState
	if err := profile.Validate(); err != nil {
		return state, err
	}

	vec, ok, err := s.store.VectorIndex(ctx, driven.IndexLookup{
		Name:       profile.IndexName,
		Label:      profile.Label,
		Properties: []string{profile.EmbeddingProperty},
	})
	if err != nil {
		return state, fmt.Errorf("read vector index: %w", err)
	}
	if ok {
		state.vectorExists = true
		if vec.EntityType == domain.EntityRelationship {
			return state, fmt.Errorf("%w: index %q is relationship-scoped", domain.ErrUnsupportedIndexShape, vec.Name)
		}
		if want := s.embedder.Dimensions(); vec.Dimensions != want {
			return state, &domain.IndexSchemaConflictError{
				Kind:     domain.ConflictDimensionMismatch,
				Index:    vec.Name,
				Expected: strconv.Itoa(want),
				Actual:   strconv.Itoa(vec.Dimensions),
			}
		}
		if vec.Name != profile.IndexName {
			return state, nameConflict(vec, profile.IndexName)
		}
	}

	if !hybrid {
		return state, nil
	}

	ft, ok, err := s.store.FulltextIndex(ctx, driven.IndexLookup{
		Name:       profile.KeywordIndexName,
		Label:      profile.Label,
		Properties: profile.TextProperties,
	})
	if err != nil {
		return state, fmt.Errorf("read fulltext index: %w", err)
	}
	if ok {
		state.fulltextExists = true
		if !ft.HasLabel(profile.Label) {
			return state, &domain.IndexSchemaConflictError{
				Kind:     domain.ConflictLabelMismatch,
				Index:    ft.Name,
				Expected: profile.Label,
				Actual:   strings.Join(ft.Labels, ","),
			}
		}
		if ft.Name != profile.KeywordIndexName {
			return state, nameConflict(ft, profile.KeywordIndexName)
		}
	}
	return state, nil
}

// nameConflict reports an index that covers the profile's schema under
// another name. Searches address indexes by name, so it cannot be reused.
func nameConflict(info domain.IndexInfo, want string) error {
	return &domain.IndexSchemaConflictError{
		Kind:     domain.ConflictNameMismatch,
		Index:    info.Name,
		Expected: want,
		Actual:   info.Name,
	}
}

// EnsureIndexes validates and then creates whatever indexes are missing.
func (s *IndexStore) EnsureIndexes(ctx context.Context, profile domain.IndexProfile, hybrid bool) error {
	state, err := s.validate(ctx, profile, hybrid)
	if err != nil {
		return err
	}

	if !state.vectorExists {
		logger.Info("Creating vector index %s on :%s(%s), %d dimensions",
			profile.IndexName, profile.Label, profile.EmbeddingProperty, s.embedder.Dimensions())
		if err := s.store.CreateVectorIndex(ctx, driven.VectorIndexSpec{
			Name:       profile.IndexName,
			Label:      profile.Label,
			Property:   profile.EmbeddingProperty,
			Dimensions: s.embedder.Dimensions(),
		}); err != nil {
			return err
		}
	}

	if hybrid && !state.fulltextExists {
		logger.Info("Creating fulltext index %s on :%s", profile.KeywordIndexName, profile.Label)
		if err := s.store.CreateFulltextIndex(ctx, driven.FulltextIndexSpec{
			Name:       profile.KeywordIndexName,
			Label:      profile.Label,
			Properties: profile.TextProperties,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Indexes lists the store's indexes.
func (s *IndexStore) Indexes(ctx context.Context) ([]domain.IndexInfo, error) {
	return s.store.Indexes(ctx)
}

// Constraints lists the store's constraints.
func (s *IndexStore) Constraints(ctx context.Context) ([]domain.Constraint, error) {
	return s.store.Constraints(ctx)
}

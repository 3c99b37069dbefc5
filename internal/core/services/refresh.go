package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure RefreshService implements the interface.
var _ driving.RefreshService = (*RefreshService)(nil)

// RefreshService rebuilds a profile's nodes from the wiki. At most one
// refresh may run at a time against a given label.
type RefreshService struct {
	index    *IndexStore
	store    driven.GraphStore
	embedder driven.EmbeddingService
	wiki     driven.WikiClient
	crawler  *Crawler
	profile  domain.IndexProfile
	hybrid   bool
}

// NewRefreshService creates a refresh service for profile. With hybrid set
// the keyword index is validated and created alongside the vector index.
func NewRefreshService(
	index *IndexStore,
	wiki driven.WikiClient,
	crawler *Crawler,
	profile domain.IndexProfile,
	hybrid bool,
) *RefreshService {
	return &RefreshService{
		index:    index,
		store:    index.store,
		embedder: index.embedder,
		wiki:     wiki,
		crawler:  crawler,
		profile:  profile,
		hybrid:   hybrid,
	}
}

// FullRefresh replaces every node of the profile's label with the current
// wiki content. Index conflicts are returned before anything is deleted.
// Per-page failures only show up in the summary.
func (r *RefreshService) FullRefresh(ctx context.Context, spaceKey string) (*domain.RefreshSummary, error) {
	summary := &domain.RefreshSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	logger.Section("Full refresh " + summary.RunID)

	spaces, err := r.wiki.ListSpaces(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		logger.Warn("listing spaces failed: %v", err)
	}
	spaces, found := FilterSpaces(spaces, spaceKey)
	if !found {
		logger.Warn("target space %q not found, loading all %d spaces", spaceKey, len(spaces))
		spaceKey = ""
	}
	if len(spaces) == 0 {
		logger.Warn("no spaces found")
		summary.Reason = domain.ReasonNoSpaces
		summary.Finalise()
		return summary, nil
	}

	if err := r.index.EnsureIndexes(ctx, r.profile, r.hybrid); err != nil {
		logger.Error("index validation failed, nothing deleted: %v", err)
		return summary, err
	}

	deleted, err := r.store.DeleteLabel(ctx, r.profile.Label)
	if err != nil {
		return summary, fmt.Errorf("delete %s nodes: %w", r.profile.Label, err)
	}
	logger.Info("Deleted %d existing %s nodes", deleted, r.profile.Label)

	if err := r.index.EnsureIndexes(ctx, r.profile, r.hybrid); err != nil {
		return summary, err
	}

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages, errs := r.crawler.Crawl(crawlCtx, spaces, spaceKey)
	for pages != nil || errs != nil {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if cc, done := IsCrawlComplete(err); done {
				summary.SpacesSeen = cc.SpacesSeen
				summary.PagesSeen = cc.PagesSeen
				summary.PagesFailed = cc.PagesFailed
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("crawl: %w", err)
			}

		case page, ok := <-pages:
			if !ok {
				pages = nil
				continue
			}
			if err := r.writePage(ctx, page); err != nil {
				summary.NodesFailed++
				logger.Warn("page %s: %v", page.Page.ID, err)
				continue
			}
			summary.NodesCreated++
		}
	}

	summary.Finalise()
	logger.Info("Refresh %s: %d spaces, %d pages, %d nodes created, %d pages failed, %d writes failed",
		summary.RunID, summary.SpacesSeen, summary.PagesSeen, summary.NodesCreated, summary.PagesFailed, summary.NodesFailed)
	return summary, nil
}

// writePage embeds a crawled page and stores it as one node.
func (r *RefreshService) writePage(ctx context.Context, page domain.CrawledPage) error {
	vector, err := r.embedder.Embed(ctx, page.EmbeddingText)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	node := domain.NewIndexedNode(page, vector)
	if err := r.store.CreateNode(ctx, r.profile.Label, node.Properties()); err != nil {
		return fmt.Errorf("write node: %w", err)
	}
	return nil
}

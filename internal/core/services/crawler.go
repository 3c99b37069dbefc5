package services

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// CrawlComplete is sent on the error channel when a crawl finishes. It
// carries the run's counters.
type CrawlComplete struct {
	SpacesSeen  int
	PagesSeen   int
	PagesFailed int
}

// Error implements the error interface.
// This allows CrawlComplete to be sent on the error channel.
func (*CrawlComplete) Error() string {
	return "crawl complete"
}

// IsCrawlComplete checks if an error is actually a successful completion.
func IsCrawlComplete(err error) (*CrawlComplete, bool) {
	var cc *CrawlComplete
	if errors.As(err, &cc) {
		return cc, true
	}
	return nil, false
}

// FilterSpaces keeps only the space whose key equals filterKey. An empty
// filterKey, or one that matches no space, keeps every space; found reports
// whether filterKey matched.
func FilterSpaces(spaces []domain.Space, filterKey string) (selected []domain.Space, found bool) {
	if filterKey == "" {
		return spaces, true
	}
	for _, s := range spaces {
		if s.Key == filterKey {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return spaces, false
	}
	return selected, true
}

// Crawler walks the page tree of each space breadth-first.
type Crawler struct {
	wiki      driven.WikiClient
	extractor driven.ContentExtractor
	workers   int
}

// NewCrawler creates a crawler. workers is the number of spaces crawled at
// once; values below 1 mean 1.
func NewCrawler(wiki driven.WikiClient, extractor driven.ContentExtractor, workers int) *Crawler {
	if workers < 1 {
		workers = 1
	}
	return &Crawler{wiki: wiki, extractor: extractor, workers: workers}
}

type crawlStats struct {
	spaces atomic.Int64
	pages  atomic.Int64
	failed atomic.Int64
}

// Crawl emits one CrawledPage per distinct page id. Both channels are
// closed when the crawl ends. The error channel carries *CrawlComplete on
// success or the context error on cancellation.
func (c *Crawler) Crawl(
	ctx context.Context, spaces []domain.Space, filterKey string,
) (<-chan domain.CrawledPage, <-chan error) {
	pages := make(chan domain.CrawledPage, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(pages)
		defer close(errs)

		selected, _ := FilterSpaces(spaces, filterKey)
		seen := NewSeenSet()
		stats := &crawlStats{}

		var g errgroup.Group
		g.SetLimit(c.workers)
		for _, space := range selected {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return c.crawlSpace(ctx, space, seen, pages, stats)
			})
		}
		err := g.Wait()

		if ctxErr := ctx.Err(); ctxErr != nil {
			errs <- ctxErr
			return
		}
		if err != nil {
			errs <- err
			return
		}
		errs <- &CrawlComplete{
			SpacesSeen:  int(stats.spaces.Load()),
			PagesSeen:   int(stats.pages.Load()),
			PagesFailed: int(stats.failed.Load()),
		}
	}()

	return pages, errs
}

// crawlSpace processes one space. Only cancellation is returned; every
// other failure is logged and contained.
func (c *Crawler) crawlSpace(
	ctx context.Context, space domain.Space, seen *SeenSet, out chan<- domain.CrawledPage, stats *crawlStats,
) error {
	stats.spaces.Add(1)
	logger.Info("Crawling space %s (%s)", space.Key, space.Name)

	top, err := c.wiki.ListPages(ctx, space.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("space %s: listing pages failed, skipping: %v", space.Key, err)
		return nil
	}
	if len(top) == 0 {
		logger.Warn("space %s has no pages", space.Key)
		return nil
	}

	queue := append([]domain.Page(nil), top...)
	for head := 0; head < len(queue); head++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := queue[head]
		if !seen.MarkNew(item.ID) {
			logger.Debug("page %s already seen, skipping", item.ID)
			continue
		}
		stats.pages.Add(1)

		if page, ok := c.fetchPage(ctx, space, item); ok {
			select {
			case out <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			stats.failed.Add(1)
		}

		children, err := c.wiki.ListChildren(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("page %s: listing children failed, subtree skipped: %v", item.ID, err)
			continue
		}
		queue = append(queue, children...)
	}

	logger.Debug("space %s done", space.Key)
	return nil
}

// fetchPage fetches the full page and builds its crawled form.
func (c *Crawler) fetchPage(ctx context.Context, space domain.Space, item domain.Page) (domain.CrawledPage, bool) {
	page, err := c.wiki.GetPage(ctx, item.ID)
	if err != nil {
		logger.Warn("page %s: fetch failed: %v", item.ID, err)
		return domain.CrawledPage{}, false
	}

	if page.ID == "" {
		page.ID = item.ID
	}
	if page.Title == "" {
		page.Title = item.Title
	}
	if page.SpaceID == "" {
		page.SpaceID = space.ID
	}
	if page.SpaceName == "" {
		page.SpaceName = space.Name
	}
	if page.SpaceKey == "" {
		page.SpaceKey = space.Key
	}

	text := c.extractor.Extract(page.Body)
	logger.Debug("page %s: %q (%d chars)", page.ID, page.Title, len(text))

	return domain.CrawledPage{
		Page:          page,
		Text:          text,
		EmbeddingText: domain.EmbeddingTextFor(page.Title, text),
	}, true
}

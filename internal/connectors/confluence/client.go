package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driven"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.WikiClient = (*Client)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// maxErrorBody bounds how much of an error response is kept in APIError.
	maxErrorBody = 1024
)

// API paths, relative to the configured base URL.
const (
	spacesPath = "/api/v2/spaces"
	pagesPath  = "/api/v2/pages"
)

// Config holds configuration for the Confluence client.
type Config struct {
	// BaseURL is the API root, e.g. https://example.atlassian.net/wiki.
	BaseURL string

	// AccessToken is sent as a bearer credential.
	AccessToken string

	// PageLimit is the limit parameter sent to collection endpoints (default: 100).
	PageLimit int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient is the transport wrapped with the bearer token. Optional.
	HTTPClient *http.Client

	// RateLimiter overrides the default throttle. Optional.
	RateLimiter *RateLimiter

	// MaxRetries bounds retries of transient failures (default: 3). Negative disables retries.
	MaxRetries int

	// RetryDelay is the initial backoff interval (default: 1s).
	RetryDelay time.Duration

	// Resolvers overrides the next-link strategies. Optional.
	Resolvers []NextResolver
}

// ConfigFromSettings maps domain settings onto a client config.
func ConfigFromSettings(s domain.ConfluenceSettings) Config {
	return Config{
		BaseURL:     s.BaseURL,
		AccessToken: s.AccessToken,
		PageLimit:   s.PageLimit,
	}
}

// Client reads spaces and pages from the Confluence v2 REST API.
type Client struct {
	http        *http.Client
	baseURL     string
	pageLimit   int
	configured  bool
	rateLimiter *RateLimiter
	maxRetries  int
	retryDelay  time.Duration
	resolvers   []NextResolver
}

// response is a successful, fully read HTTP response.
type response struct {
	header http.Header
	body   []byte
}

// New creates a Confluence client. A missing base URL or token yields a
// client whose calls log a warning and return empty results.
func New(cfg Config) *Client {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = domain.DefaultPageLimit
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = RetryDelay
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = NewRateLimiter()
	}
	if len(cfg.Resolvers) == 0 {
		cfg.Resolvers = DefaultNextResolvers
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.AccessToken},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = cfg.Timeout

	return &Client{
		http:        tc,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pageLimit:   cfg.PageLimit,
		configured:  cfg.BaseURL != "" && cfg.AccessToken != "",
		rateLimiter: cfg.RateLimiter,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		resolvers:   cfg.Resolvers,
	}
}

// Configured reports whether the base URL and token are both set.
func (c *Client) Configured() bool {
	return c.configured
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

func (c *Client) warnNotConfigured(what string) {
	logger.Warn("confluence: base URL or access token not configured, returning no %s", what)
}

// ListSpaces returns every space visible to the token.
func (c *Client) ListSpaces(ctx context.Context) ([]domain.Space, error) {
	if !c.configured {
		c.warnNotConfigured("spaces")
		return nil, nil
	}

	dtos, err := FetchAll[spaceDTO](ctx, c, spacesPath, c.limitParams())
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}

	spaces := make([]domain.Space, 0, len(dtos))
	for _, d := range dtos {
		spaces = append(spaces, d.toDomain())
	}
	return spaces, nil
}

// ListPages returns the pages of a space.
func (c *Client) ListPages(ctx context.Context, spaceID string) ([]domain.Page, error) {
	if !c.configured {
		c.warnNotConfigured("pages")
		return nil, nil
	}

	params := c.limitParams()
	params.Set("spaceId", spaceID)

	dtos, err := FetchAll[pageDTO](ctx, c, pagesPath, params)
	if err != nil {
		return nil, fmt.Errorf("list pages of space %s: %w", spaceID, err)
	}
	return pagesToDomain(dtos), nil
}

// GetPage fetches one page with its storage-format body.
func (c *Client) GetPage(ctx context.Context, pageID string) (domain.Page, error) {
	if !c.configured {
		c.warnNotConfigured("page content")
		return domain.Page{ID: pageID}, nil
	}

	params := url.Values{}
	params.Set("body-format", "storage")

	resp, err := c.get(ctx, c.endpoint(pagesPath+"/"+url.PathEscape(pageID), params))
	if err != nil {
		return domain.Page{}, fmt.Errorf("get page %s: %w", pageID, err)
	}

	var dto pageDTO
	if err := decodeJSON(resp.body, &dto); err != nil {
		return domain.Page{}, fmt.Errorf("decode page %s: %w", pageID, err)
	}
	page := dto.toDomain()
	if page.ID == "" {
		page.ID = pageID
	}
	return page, nil
}

// ListChildren returns the direct children of a page.
func (c *Client) ListChildren(ctx context.Context, pageID string) ([]domain.Page, error) {
	if !c.configured {
		c.warnNotConfigured("child pages")
		return nil, nil
	}

	path := pagesPath + "/" + url.PathEscape(pageID) + "/children"
	dtos, err := FetchAll[pageDTO](ctx, c, path, c.limitParams())
	if err != nil {
		return nil, fmt.Errorf("list children of page %s: %w", pageID, err)
	}
	return pagesToDomain(dtos), nil
}

func (c *Client) limitParams() url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	return params
}

// endpoint builds the first request URL of a walk.
func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get issues a GET with throttling and bounded exponential backoff.
// Network errors, 429 and 5xx are retried. Other non-2xx statuses are permanent.
func (c *Client) get(ctx context.Context, rawURL string) (*response, error) {
	var result *response

	op := func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Message:    errorMessage(body, resp.Status),
				URL:        rawURL,
			}
			if apiErr.Retryable() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		result = &response{header: resp.Header, body: body}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("confluence: %v, retrying in %s", err, wait)
	}

	if err := backoff.RetryNotify(op, c.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryDelay
	exp.MaxElapsedTime = 0

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func errorMessage(body []byte, status string) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return status
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

func decodeJSON(body []byte, v any) error {
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(body, v)
}

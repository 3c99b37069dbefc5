package confluence

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate is the sustained request rate (requests per second).
	ProactiveRate = 10.0

	// ProactiveBurst is the token bucket size.
	ProactiveBurst = 10

	// DefaultRetryAfter is used for a 429 response without a usable Retry-After.
	DefaultRetryAfter = 5 * time.Second

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (RFC 3339 or Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// RateLimiter combines proactive token-bucket throttling with reactive
// handling of 429 responses and rate limit headers.
type RateLimiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	retryAt   time.Time
	remaining int
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter with the default rate.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithRate(ProactiveRate, ProactiveBurst)
}

// NewRateLimiterWithRate creates a rate limiter with a custom rate.
// A non-positive rate disables proactive throttling.
func NewRateLimiterWithRate(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, burst),
		remaining: -1,
		now:       time.Now,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	now := r.now()
	r.mu.Unlock()

	if now.Before(retryAt) {
		timer := time.NewTimer(retryAt.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// UpdateFromResponse records rate limit headers. A 429 response or an
// exhausted quota pushes the next permitted request time forward.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		r.retryAt = r.now().Add(r.retryAfter(resp.Header))
		return
	}

	if r.remaining == 0 {
		if reset, ok := parseReset(resp.Header.Get(HeaderRateReset)); ok {
			r.retryAt = reset
		}
	}
}

// CheckRateLimit updates state from the response and returns a
// RateLimitError if the response was a 429.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	r.UpdateFromResponse(resp)

	if resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	return &RateLimitError{RetryAt: r.RetryAt(), URL: url}
}

// RetryAt returns the earliest time the next request may be sent.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}

// Remaining returns the last reported remaining quota, or -1 if unknown.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// retryAfter must be called with r.mu held.
func (r *RateLimiter) retryAfter(h http.Header) time.Duration {
	value := h.Get(HeaderRetryAfter)
	if value == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(r.now()); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}

func parseReset(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

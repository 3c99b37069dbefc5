// Package confluence implements a client for the Confluence Cloud v2 REST API.
//
// The client lists spaces, the pages of a space and the children of a page,
// and fetches individual pages with their storage-format body. It satisfies
// [driven.WikiClient].
//
// # Pagination
//
// Collection endpoints are walked by [FetchAll]. The next page is resolved by
// an ordered list of [NextResolver] strategies: the Link response header
// first, then the _links.next field of the body. Only the first request
// carries query parameters; later requests use the resolved URL verbatim.
//
// Relative next links are prefixed with the base URL. Confluence returns
// links that already contain the base path (/wiki), so repeated trailing
// blocks of the base path are collapsed before the link is requested.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits the sustained request rate.
//
//  2. Reactive handling: a 429 response or an exhausted X-RateLimit-Remaining
//     quota delays the next request until Retry-After or X-RateLimit-Reset.
//
// Network errors, 429 and 5xx responses are retried with bounded
// exponential backoff. Other failures are returned as [*APIError].
//
// # Missing Configuration
//
// Without a base URL or access token every call logs a warning and returns
// an empty result, so a run completes with zero nodes instead of failing.
package confluence

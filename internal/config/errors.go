package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name the specific invalid
// field.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a target URL")

	// ErrInvalidTarget is returned when the target URL cannot be parsed
	// or is not an http(s) URL with a host.
	ErrInvalidTarget = errors.New("invalid target: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxDepth is returned when the depth budget is negative.
	// Zero is valid and means only the seed page is fetched.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidConcurrency is returned when a concurrency limit is not
	// positive. Zero workers would mean no scanning at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCacheCapacity is returned when caching is enabled with a
	// non-positive in-memory tier capacity.
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity: must be positive when caching is enabled")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidAuthType is returned for unknown auth descriptor types.
	ErrInvalidAuthType = errors.New("invalid auth type: must be basic, bearer, or header")
)

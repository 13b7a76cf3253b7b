package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen for polite scanning of production websites; aggressive
// values risk tripping rate limits or WAF blocks on the target.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds is generous
	// for slow origins while keeping a stuck page from stalling the crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages limits the pages crawled per scan. This prevents
	// runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 100

	// DefaultMaxDepth limits link-following recursion from the seed URL.
	// Depth 0 means only the seed page.
	DefaultMaxDepth = 5

	// DefaultCrawlDelay is the pause between requests to the same host.
	// This is a politeness setting to avoid overwhelming servers.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultFetchConcurrency bounds in-flight fetches during crawling.
	DefaultFetchConcurrency = 4

	// DefaultModuleConcurrency bounds concurrently executing test modules.
	DefaultModuleConcurrency = 3

	// DefaultUserAgent identifies the scanner in HTTP requests.
	// A descriptive User-Agent lets site operators identify scanner traffic.
	DefaultUserAgent = "webscan/1.0 (+https://github.com/agobrik/webtesttool-sub001)"

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB covers normal pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultCacheCapacity is the entry capacity of the in-memory cache tier.
	DefaultCacheCapacity = 512

	// DefaultCacheTTL is the default time-to-live for cached responses.
	DefaultCacheTTL = 15 * time.Minute

	// DefaultMaxScanDuration is the wall-clock budget for a whole scan.
	DefaultMaxScanDuration = 30 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "webscan"
)

// Auth describes how the scanner authenticates against the target.
// The zero value means unauthenticated scanning.
type Auth struct {
	// Type selects the scheme: "basic", "bearer", or "header".
	Type string `yaml:"type,omitempty"`

	// Username and Password are used when Type is "basic".
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Token is used when Type is "bearer".
	Token string `yaml:"token,omitempty"`

	// HeaderName and HeaderValue are used when Type is "header",
	// for sites with custom auth headers or pre-baked cookies.
	HeaderName  string `yaml:"headerName,omitempty"`
	HeaderValue string `yaml:"headerValue,omitempty"`
}

// Enabled reports whether any authentication is configured.
func (a Auth) Enabled() bool {
	return a.Type != ""
}

// Config holds all options for a scan.
// This struct is populated by CLI flags or an embedding application and
// passed through the scanner via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, CacheConfig) for simplicity, matching how the number
// of options is still manageable. If the configuration grows significantly,
// consider refactoring into sub-structs.
type Config struct {
	// TargetURL is the seed URL to scan. Required.
	TargetURL string

	// Auth is the authentication descriptor for the target.
	Auth Auth

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxPages limits the total number of pages crawled per scan.
	MaxPages int

	// MaxDepth limits crawl recursion from the seed URL (seed = 0).
	MaxDepth int

	// CrawlDelay is the pause enforced between consecutive requests to
	// the same host.
	CrawlDelay time.Duration

	// MaxScanDuration is the wall-clock budget for the whole scan.
	// Zero means DefaultMaxScanDuration.
	MaxScanDuration time.Duration

	// IncludePatterns restricts crawling to URL paths matching at least
	// one glob pattern. Empty means all paths are allowed.
	IncludePatterns []string

	// ExcludePatterns skips URL paths matching any glob pattern.
	ExcludePatterns []string

	// FetchConcurrency bounds concurrent in-flight fetches.
	FetchConcurrency int

	// ModuleConcurrency bounds concurrently executing test modules.
	ModuleConcurrency int

	// EnabledModules restricts which test modules run, by name.
	// Empty means all registered modules run.
	EnabledModules []string

	// DisabledModules lists module names that must not run, applied after
	// EnabledModules. Typically populated from the per-site overrides file.
	DisabledModules []string

	// ModuleOptions carries per-module option maps keyed by module name.
	ModuleOptions map[string]map[string]string

	// CacheEnabled turns the response cache on. When false every fetch
	// goes to the network.
	CacheEnabled bool

	// CacheCapacity is the entry capacity of the in-memory cache tier.
	CacheCapacity int

	// CacheTTL is the default time-to-live for cached responses.
	CacheTTL time.Duration

	// ContentTypeTTLs overrides the cache TTL per content type
	// (e.g. "text/css" -> 1h). An explicit per-call TTL still wins.
	ContentTypeTTLs map[string]time.Duration

	// CacheDir is the directory for the persistent cache tier.
	// Empty disables the persistent tier; the cache then runs
	// in-memory only.
	CacheDir string

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize limits how much of each response body is read.
	MaxBodySize int64

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. This also documents the defaults in
// one place.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxPages:          DefaultMaxPages,
		MaxDepth:          DefaultMaxDepth,
		CrawlDelay:        DefaultCrawlDelay,
		MaxScanDuration:   DefaultMaxScanDuration,
		FetchConcurrency:  DefaultFetchConcurrency,
		ModuleConcurrency: DefaultModuleConcurrency,
		CacheEnabled:      true,
		CacheCapacity:     DefaultCacheCapacity,
		CacheTTL:          DefaultCacheTTL,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// XDGCacheDir returns the XDG cache directory for the scanner, used as the
// default location of the persistent cache tier.
// On Linux: ~/.cache/webscan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGDataDir returns the XDG data directory for the scanner.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: We validate once at the scan boundary rather than at
// each point of use to fail fast with clear messages, and we return the
// first error found because fixing one often makes others irrelevant.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return ErrNoTarget
	}

	u, err := url.Parse(c.TargetURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.FetchConcurrency <= 0 || c.ModuleConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.CacheEnabled && c.CacheCapacity <= 0 {
		return ErrInvalidCacheCapacity
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.Auth.Type {
	case "", "basic", "bearer", "header":
	default:
		return ErrInvalidAuthType
	}

	return nil
}

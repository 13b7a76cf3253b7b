package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/fetch"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/scanerr"
)

// Crawler performs a bounded breadth-first traversal of a website.
// It stays on the starting URL's host and respects depth, page-count,
// and URL-pattern limits.
type Crawler struct {
	// fetcher performs the HTTP requests. It owns caching, rate
	// limiting, and authentication.
	fetcher *fetch.Fetcher

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page.
	maxDepth int

	// maxPages limits the total number of pages visited, counting
	// failed fetches.
	maxPages int

	// concurrency is the number of pages fetched in parallel.
	concurrency int

	// includePatterns, when set, restrict crawling to matching paths.
	includePatterns []string

	// excludePatterns are paths to skip. Exclusion wins over inclusion.
	excludePatterns []string

	// onPage, when set, is called for every visited page in completion
	// order. Used for progress reporting.
	onPage func(*model.CrawledPage)

	logger *slog.Logger
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) CrawlerOption {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to visit.
func WithMaxPages(maxPages int) CrawlerOption {
	return func(c *Crawler) {
		c.maxPages = maxPages
	}
}

// WithConcurrency sets how many pages are fetched in parallel.
func WithConcurrency(n int) CrawlerOption {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithIncludePatterns restricts crawling to URL paths matching at least
// one glob pattern (e.g., "/blog/*", "/docs/*").
func WithIncludePatterns(patterns []string) CrawlerOption {
	return func(c *Crawler) {
		c.includePatterns = patterns
	}
}

// WithExcludePatterns sets URL path patterns to skip (e.g., "/admin/*",
// "*.pdf", "/logout*").
func WithExcludePatterns(patterns []string) CrawlerOption {
	return func(c *Crawler) {
		c.excludePatterns = patterns
	}
}

// WithPageCallback registers a callback invoked for each visited page.
func WithPageCallback(fn func(*model.CrawledPage)) CrawlerOption {
	return func(c *Crawler) {
		c.onPage = fn
	}
}

// WithCrawlerLogger sets a custom logger.
func WithCrawlerLogger(logger *slog.Logger) CrawlerOption {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// NewCrawler creates a Crawler that fetches through the given fetcher.
func NewCrawler(fetcher *fetch.Fetcher, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		fetcher:     fetcher,
		maxDepth:    5,
		maxPages:    100,
		concurrency: 4,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// queueItem is one frontier entry.
type queueItem struct {
	url   string
	depth int
}

// visitResult is the outcome of fetching one frontier entry.
type visitResult struct {
	page       *model.CrawledPage
	links      []string
	retryAfter time.Duration
}

// Crawl traverses the site breadth-first from startURL and returns every
// visited page in completion order. Failed fetches are recorded as pages
// with a FetchError so callers can see the holes.
//
// An unreachable starting URL is the one fatal case: there is nothing to
// assess, so Crawl returns a target-unreachable error.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]*model.CrawledPage, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, scanerr.NewScan(scanerr.CodeTargetUnreachable, startURL, err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		start.Scheme = "https"
	}

	visited := map[string]bool{cache.NormalizeURL(start.String()): true}
	queue := []queueItem{{url: start.String(), depth: 0}}
	pages := make([]*model.CrawledPage, 0)

	for len(queue) > 0 && len(pages) < c.maxPages {
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		batch := c.takeBatch(&queue, c.maxPages-len(pages))
		results := make([]*visitResult, len(batch))

		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, item := range batch {
			i, item := i, item
			g.Go(func() error {
				results[i] = c.visit(ctx, item)
				return nil
			})
		}
		g.Wait() //nolint:errcheck

		var backoff time.Duration
		for _, res := range results {
			pages = append(pages, res.page)
			if c.onPage != nil {
				c.onPage(res.page)
			}
			if res.retryAfter > backoff {
				backoff = res.retryAfter
			}

			if res.page.Depth >= c.maxDepth {
				continue
			}
			for _, link := range res.links {
				normalized := cache.NormalizeURL(link)
				if visited[normalized] || !c.sameHost(start, link) || !c.shouldCrawl(link) {
					continue
				}
				visited[normalized] = true
				queue = append(queue, queueItem{url: link, depth: res.page.Depth + 1})
			}
		}

		// Cancellation outranks fetch failures it may have caused.
		if ctx.Err() != nil {
			return pages, ctx.Err()
		}

		// The seed is the only page whose failure aborts the crawl.
		if len(pages) > 0 && pages[0].Depth == 0 && !crawlContinuable(pages[0]) {
			return nil, scanerr.NewScan(scanerr.CodeTargetUnreachable, start.String(), nil)
		}

		if backoff > 0 {
			c.logger.Debug("server asked to slow down, backing off", "wait", backoff)
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return pages, nil
}

// takeBatch removes up to one concurrency wave of items from the queue,
// never claiming more page slots than remain in the budget.
func (c *Crawler) takeBatch(queue *[]queueItem, budget int) []queueItem {
	n := c.concurrency
	if n > budget {
		n = budget
	}
	if n > len(*queue) {
		n = len(*queue)
	}
	batch := (*queue)[:n]
	*queue = (*queue)[n:]
	return batch
}

// visit fetches one URL and builds its page record. Fetch failures are
// folded into the record rather than returned, so the crawl continues.
func (c *Crawler) visit(ctx context.Context, item queueItem) *visitResult {
	res := &visitResult{}

	resp, err := c.fetcher.Get(ctx, item.url)
	if err != nil {
		if se := scanerr.AsError(err); se != nil && se.Kind == scanerr.KindRateLimit {
			res.retryAfter = se.RetryAfter
			if res.retryAfter == 0 {
				res.retryAfter = time.Second
			}
		}
		if resp == nil {
			c.logger.Debug("fetch failed", "url", item.url, "error", err)
			res.page = &model.CrawledPage{
				URL:        item.url,
				Depth:      item.depth,
				FetchedAt:  time.Now(),
				FetchError: err.Error(),
			}
			return res
		}
		// A response alongside the error (429) is still a page.
	}

	page := &model.CrawledPage{
		URL:         item.url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Depth:       item.depth,
		FetchedAt:   resp.FetchedAt,
		FromCache:   resp.FromCache,
		Size:        resp.Size,
		Headers:     resp.Headers,
		Body:        resp.Body,
	}
	if len(page.Body) > model.MaxStoredBodySize {
		page.Body = page.Body[:model.MaxStoredBodySize]
	}
	res.page = page

	if page.IsHTML() && page.Succeeded() {
		parser, perr := NewParser(item.url)
		if perr == nil {
			if parsed, perr := parser.Parse(bytes.NewReader(page.Body), page.ContentType); perr == nil {
				page.Title = parsed.Title
				page.Links = parsed.Links
				page.Forms = parsed.Forms
				res.links = parsed.InternalLinks
			} else {
				c.logger.Debug("parse failed", "url", item.url, "error", perr)
			}
		}
	}

	return res
}

// crawlContinuable reports whether the seed page gives the crawl anything
// to work with. A recorded fetch error with no response means the target
// never answered.
func crawlContinuable(seed *model.CrawledPage) bool {
	return seed.FetchError == "" || seed.StatusCode != 0
}

// sameHost reports whether the link stays on the starting host.
func (c *Crawler) sameHost(start *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, start.Host) ||
		strings.EqualFold(u.Hostname(), start.Hostname())
}

// shouldCrawl checks a URL against the exclude and include patterns.
// Exclusion is checked first; if include patterns are set the path must
// match at least one.
func (c *Crawler) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range c.excludePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(c.includePatterns) > 0 {
		for _, pattern := range c.includePatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// "/admin/*" should match the whole subtree, not one segment.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.pdf" match anywhere in the tree.
	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Bare filename patterns match against the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}

// CollectEndpoints re-parses the crawled HTML pages and returns the API
// endpoints hinted at across the site, deduplicated by method and path.
func CollectEndpoints(pages []*model.CrawledPage) []model.APIEndpoint {
	endpoints := make([]model.APIEndpoint, 0)
	for _, page := range pages {
		if !page.IsHTML() || !page.Succeeded() || len(page.Body) == 0 {
			continue
		}
		parser, err := NewParser(page.URL)
		if err != nil {
			continue
		}
		parsed, err := parser.Parse(bytes.NewReader(page.Body), page.ContentType)
		if err != nil {
			continue
		}
		endpoints = append(endpoints, parsed.Endpoints...)
	}
	return dedupeEndpoints(endpoints)
}

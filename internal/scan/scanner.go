package scan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/config"
	"github.com/agobrik/webtesttool-sub001/internal/crawler"
	"github.com/agobrik/webtesttool-sub001/internal/fetch"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/modules"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
	"github.com/agobrik/webtesttool-sub001/internal/progress"
)

// Scanner runs complete assessments.
type Scanner struct {
	// logger is used across all components of a run.
	logger *slog.Logger

	// tracker receives progress updates. Nil disables tracking.
	tracker *progress.Tracker

	// client is the HTTP client used for all requests. When nil a
	// client is built from the configuration's timeout.
	client *http.Client

	// modules overrides the built-in module set. Used in tests.
	modules []pipeline.Module
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the logger used across the scan.
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithTracker attaches a progress tracker to the scan.
func WithTracker(tracker *progress.Tracker) ScannerOption {
	return func(s *Scanner) {
		s.tracker = tracker
	}
}

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) ScannerOption {
	return func(s *Scanner) {
		s.client = client
	}
}

// WithModules replaces the built-in module set.
func WithModules(mods ...pipeline.Module) ScannerOption {
	return func(s *Scanner) {
		s.modules = mods
	}
}

// NewScanner creates a Scanner.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes a scan against cfg.TargetURL.
//
// The returned result is non-nil whenever the scan started: a cancelled
// or failed scan still reports the pages and module results gathered so
// far, with the matching terminal status. Configuration errors return a
// nil result.
func (s *Scanner) Run(ctx context.Context, cfg *config.Config) (*model.ScanResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.MaxScanDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxScanDuration)
		defer cancel()
	}

	fetcher, closeCache := s.buildFetcher(cfg)
	defer closeCache()

	result := model.NewScanResult(cfg.TargetURL)

	pages, err := s.crawl(ctx, cfg, fetcher)
	result.CrawledPages = pages
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.Finalize(model.ScanStatusCancelled)
			s.finishTracking()
			return result, err
		}
		result.ErrorMessage = err.Error()
		result.Finalize(model.ScanStatusFailed)
		s.finishTracking()
		return result, err
	}

	result.Endpoints = crawler.CollectEndpoints(pages)
	if s.tracker != nil {
		s.tracker.EndpointsDiscovered(len(result.Endpoints))
	}

	// Cancellation between phases yields a partial result.
	if ctx.Err() != nil {
		result.Finalize(model.ScanStatusCancelled)
		s.finishTracking()
		return result, ctx.Err()
	}

	result.ModuleResults = s.runModules(ctx, cfg, fetcher, result)

	status := model.ScanStatusCompleted
	if ctx.Err() != nil {
		status = model.ScanStatusCancelled
	}
	result.Finalize(status)
	s.finishTracking()

	s.logger.Info("scan finished",
		"target", cfg.TargetURL,
		"status", result.Status,
		"pages", result.Summary.PagesCrawled,
		"findings", result.Summary.TotalFindings,
		"duration", result.Duration,
	)

	if status == model.ScanStatusCancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// buildFetcher assembles the fetcher and its cache from the configuration.
// The returned cleanup closes the cache's persistent tier.
func (s *Scanner) buildFetcher(cfg *config.Config) (*fetch.Fetcher, func()) {
	opts := []fetch.Option{
		fetch.WithAuth(cfg.Auth),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithCrawlDelay(cfg.CrawlDelay),
		fetch.WithLogger(s.logger),
	}

	closeCache := func() {}
	if cfg.CacheEnabled {
		store := cache.NewManager(
			cache.WithCapacity(cfg.CacheCapacity),
			cache.WithDefaultTTL(cfg.CacheTTL),
			cache.WithContentTypeTTLs(cfg.ContentTypeTTLs),
			cache.WithLogger(s.logger),
			cache.WithPersistentDir(cfg.CacheDir),
		)
		opts = append(opts, fetch.WithCache(store))
		closeCache = func() {
			if err := store.Close(); err != nil {
				s.logger.Warn("failed to close cache", "error", err)
			}
		}
	}

	client := s.client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return fetch.NewFetcher(client, opts...), closeCache
}

// crawl runs the crawler with progress forwarding.
func (s *Scanner) crawl(ctx context.Context, cfg *config.Config, fetcher *fetch.Fetcher) ([]*model.CrawledPage, error) {
	opts := []crawler.CrawlerOption{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithConcurrency(cfg.FetchConcurrency),
		crawler.WithIncludePatterns(cfg.IncludePatterns),
		crawler.WithExcludePatterns(cfg.ExcludePatterns),
		crawler.WithCrawlerLogger(s.logger),
	}
	if s.tracker != nil {
		opts = append(opts, crawler.WithPageCallback(s.tracker.PageVisited))
	}

	return crawler.NewCrawler(fetcher, opts...).Crawl(ctx, cfg.TargetURL)
}

// runModules selects, configures, and executes the assessment modules.
func (s *Scanner) runModules(ctx context.Context, cfg *config.Config, fetcher *fetch.Fetcher, result *model.ScanResult) []model.ModuleResult {
	mods := s.modules
	if mods == nil {
		mods = modules.All()
	}
	mods = modules.Filter(mods, cfg.EnabledModules, cfg.DisabledModules)

	if s.tracker != nil {
		s.tracker.ModulesScheduled(len(mods))
	}

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithConcurrency(cfg.ModuleConcurrency),
		pipeline.WithModuleOptions(cfg.ModuleOptions),
		pipeline.WithLogger(s.logger),
	}
	if s.tracker != nil {
		runnerOpts = append(runnerOpts,
			pipeline.WithModuleStartCallback(s.tracker.ModuleStarted),
			pipeline.WithModuleDoneCallback(s.tracker.ModuleFinished),
		)
	}

	runner := pipeline.NewRunner(runnerOpts...)
	runner.Register(mods...)

	return runner.Execute(ctx, &pipeline.Context{
		TargetURL: cfg.TargetURL,
		Pages:     result.CrawledPages,
		Endpoints: result.Endpoints,
		Fetcher:   fetcher,
		Logger:    s.logger,
	})
}

// finishTracking moves the tracker to its terminal phase.
func (s *Scanner) finishTracking() {
	if s.tracker != nil {
		s.tracker.Done()
	}
}

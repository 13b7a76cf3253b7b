package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agobrik/webtesttool-sub001/internal/fetch"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/scanerr"
)

// Module defines the interface all assessment modules implement.
//
// Design decision: We use an interface rather than function types because:
//  1. It allows modules to carry configuration state
//  2. Name and Category feed logging and result aggregation
//  3. It's more extensible for future features (e.g., module dependencies)
type Module interface {
	// Name returns the module's unique name, used in results and for
	// enabling or disabling the module.
	Name() string

	// Category returns the assessment category (security, performance,
	// seo, accessibility, api, functional, metadata).
	Category() string

	// Execute inspects the crawled site and returns findings.
	// Non-fatal per-page problems should be skipped, not returned;
	// a returned error marks the whole module as failed.
	Execute(ctx context.Context, sctx *Context) ([]model.Finding, error)
}

// Context carries the crawl output and shared collaborators into modules.
// Modules must treat the crawled data as read-only.
type Context struct {
	// TargetURL is the root URL of the scan.
	TargetURL string

	// Pages are the crawled pages, in completion order.
	Pages []*model.CrawledPage

	// Endpoints are the API endpoints discovered during the crawl.
	Endpoints []model.APIEndpoint

	// Fetcher lets modules make additional requests (robots.txt,
	// endpoint probes). Requests go through the same cache and rate
	// limits as the crawl.
	Fetcher *fetch.Fetcher

	// Options holds per-module configuration values.
	Options map[string]string

	// Logger is the module's structured logger.
	Logger *slog.Logger
}

// Runner executes modules with bounded concurrency.
type Runner struct {
	// modules are executed in registration order.
	modules []Module

	// concurrency is the number of modules running in parallel.
	concurrency int

	// options maps module name to its configuration values.
	options map[string]map[string]string

	// onModuleStart, when set, is called as each module starts.
	onModuleStart func(string)

	// onModuleDone, when set, is called as each module finishes.
	onModuleDone func(model.ModuleResult)

	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency sets how many modules run in parallel.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithModuleOptions sets per-module configuration values, keyed by
// module name.
func WithModuleOptions(options map[string]map[string]string) RunnerOption {
	return func(r *Runner) {
		r.options = options
	}
}

// WithModuleStartCallback registers a callback invoked with the module
// name as each module starts. Used for progress reporting.
func WithModuleStartCallback(fn func(string)) RunnerOption {
	return func(r *Runner) {
		r.onModuleStart = fn
	}
}

// WithModuleDoneCallback registers a callback invoked as each module
// finishes, in completion order. Used for progress reporting.
func WithModuleDoneCallback(fn func(model.ModuleResult)) RunnerOption {
	return func(r *Runner) {
		r.onModuleDone = fn
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner with the given options.
// Modules are added with Register.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		modules:     make([]Module, 0),
		concurrency: 3,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register appends modules to the runner. Execution results keep
// registration order.
func (r *Runner) Register(modules ...Module) {
	r.modules = append(r.modules, modules...)
}

// Modules returns the registered modules in registration order.
func (r *Runner) Modules() []Module {
	return r.modules
}

// Execute runs all registered modules and returns one result per module,
// in registration order.
//
// Design decision: Module failures never abort the run because:
//  1. Each module assesses an independent concern
//  2. A partial report is more useful than no report
//  3. The per-module status makes failures visible to the caller
func (r *Runner) Execute(ctx context.Context, sctx *Context) []model.ModuleResult {
	results := make([]model.ModuleResult, len(r.modules))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, mod := range r.modules {
		i, mod := i, mod
		g.Go(func() error {
			if r.onModuleStart != nil {
				r.onModuleStart(mod.Name())
			}
			results[i] = r.runModule(ctx, mod, sctx)
			if r.onModuleDone != nil {
				r.onModuleDone(results[i])
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return results
}

// runModule executes one module, converting panics and context
// cancellation into result statuses.
func (r *Runner) runModule(ctx context.Context, mod Module, sctx *Context) (result model.ModuleResult) {
	result = model.ModuleResult{
		ModuleName: mod.Name(),
		Category:   mod.Category(),
		Status:     model.ModuleStatusCompleted,
	}

	select {
	case <-ctx.Done():
		result.Status = model.ModuleStatusSkipped
		result.ErrorMessage = ctx.Err().Error()
		return result
	default:
	}

	start := time.Now()

	// A panicking module must not take down the scan.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("module panicked",
				"module", mod.Name(),
				"panic", rec,
			)
			result.Status = model.ModuleStatusFailed
			result.ErrorMessage = fmt.Sprintf("panic: %v", rec)
			result.Findings = nil
			result.Duration = time.Since(start)
		}
	}()

	moduleCtx := &Context{
		TargetURL: sctx.TargetURL,
		Pages:     sctx.Pages,
		Endpoints: sctx.Endpoints,
		Fetcher:   sctx.Fetcher,
		Options:   r.options[mod.Name()],
		Logger:    r.logger.With("module", mod.Name()),
	}

	findings, err := mod.Execute(ctx, moduleCtx)
	result.Duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			result.Status = model.ModuleStatusSkipped
		} else {
			result.Status = model.ModuleStatusFailed
		}
		result.ErrorMessage = scanerr.NewModule(mod.Name(), err).Error()
		r.logger.Warn("module failed",
			"module", mod.Name(),
			"error", err,
		)
		return result
	}

	for i := range findings {
		if findings[i].Category == "" {
			findings[i].Category = mod.Category()
		}
	}
	result.Findings = findings
	r.logger.Debug("module completed",
		"module", mod.Name(),
		"findings", len(findings),
		"duration", result.Duration,
	)
	return result
}

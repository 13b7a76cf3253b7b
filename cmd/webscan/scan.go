package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agobrik/webtesttool-sub001/internal/config"
	"github.com/agobrik/webtesttool-sub001/internal/log"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/progress"
	"github.com/agobrik/webtesttool-sub001/internal/scan"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Crawl and assess a website",
		Long: `Scan crawls the target website and runs assessment modules against it.

The crawler stays on the target's host and respects the depth, page,
and pattern limits. Results are printed as JSON.

Examples:
  # Scan a site with defaults
  webscan scan https://example.com

  # Shallow, fast scan
  webscan scan --depth 1 --max-pages 10 https://example.com

  # Only the security and seo modules
  webscan scan --enable security --enable seo https://example.com

  # Authenticated scan
  webscan scan --auth-token "eyJhbGciOi..." https://app.example.com

  # Write the report to a file
  webscan scan -o report.json https://example.com

Per-site overrides (.webscan) example:
  sites:
    app.example.com:
      maxDepth: 3
      excludePatterns: ["/logout*", "/admin/*"]
      disabledModules: ["metadata"]`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl recursion depth")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same host")
	cmd.Flags().Duration("max-duration", config.DefaultMaxScanDuration,
		"Wall-clock budget for the whole scan")
	cmd.Flags().StringSlice("include", nil,
		"Only crawl URL paths matching these glob patterns")
	cmd.Flags().StringSlice("exclude", nil,
		"Skip URL paths matching these glob patterns")
	cmd.Flags().Int("concurrency", config.DefaultFetchConcurrency,
		"Number of pages fetched in parallel")

	// Module flags
	cmd.Flags().StringSlice("enable", nil,
		"Run only the named modules")
	cmd.Flags().StringSlice("disable", nil,
		"Skip the named modules")
	cmd.Flags().Int("module-concurrency", config.DefaultModuleConcurrency,
		"Number of modules running in parallel")

	// Authentication flags
	cmd.Flags().String("auth-user", "", "Basic auth username")
	cmd.Flags().String("auth-password", "", "Basic auth password")
	cmd.Flags().String("auth-token", "", "Bearer token")
	cmd.Flags().String("auth-header", "",
		`Custom auth header as "Name: value"`)

	// Cache flags
	cmd.Flags().Bool("no-cache", false, "Disable the response cache")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory for the persistent cache tier (empty = memory only)")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"Default time-to-live for cached responses")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Per-site overrides file (default: .webscan in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the JSON report to this file instead of stdout")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel the scan on interrupt; a second interrupt kills the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	tracker := progress.NewTracker()
	if cfg.Verbose {
		go reportProgress(ctx, tracker, logger)
	}

	scanner := scan.NewScanner(
		scan.WithLogger(logger),
		scan.WithTracker(tracker),
	)

	result, runErr := scanner.Run(ctx, cfg)
	if result == nil {
		return runErr
	}

	// Cancelled and failed scans still produce a (partial) report.
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if err := writeReport(cmd, result, output); err != nil {
		return err
	}

	return runErr
}

// reportProgress logs progress snapshots as they arrive.
func reportProgress(ctx context.Context, tracker *progress.Tracker, logger *slog.Logger) {
	updates := tracker.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			logger.Debug("progress",
				"phase", snap.Phase,
				"pages", snap.PagesCrawled,
				"modules", fmt.Sprintf("%d/%d", snap.ModulesDone, snap.ModulesTotal),
				"findings", snap.TotalFindings(),
				"url", snap.CurrentURL,
			)
			if snap.Phase == progress.PhaseDone {
				return
			}
		}
	}
}

// writeReport marshals the result to JSON, to stdout or a file.
func writeReport(cmd *cobra.Command, result *model.ScanResult, output string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// buildConfig creates a Config from cobra command flags and the optional
// per-site overrides file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.TargetURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}
	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}
	cfg.MaxScanDuration, err = cmd.Flags().GetDuration("max-duration")
	if err != nil {
		return nil, err
	}
	cfg.IncludePatterns, err = cmd.Flags().GetStringSlice("include")
	if err != nil {
		return nil, err
	}
	cfg.ExcludePatterns, err = cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return nil, err
	}
	cfg.FetchConcurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.EnabledModules, err = cmd.Flags().GetStringSlice("enable")
	if err != nil {
		return nil, err
	}
	cfg.DisabledModules, err = cmd.Flags().GetStringSlice("disable")
	if err != nil {
		return nil, err
	}
	cfg.ModuleConcurrency, err = cmd.Flags().GetInt("module-concurrency")
	if err != nil {
		return nil, err
	}

	if err := applyAuthFlags(cmd, cfg); err != nil {
		return nil, err
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.CacheEnabled = !noCache
	cfg.CacheDir, err = cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}

	if err := applySiteOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyAuthFlags translates the auth flags into an Auth descriptor.
func applyAuthFlags(cmd *cobra.Command, cfg *config.Config) error {
	user, err := cmd.Flags().GetString("auth-user")
	if err != nil {
		return err
	}
	password, err := cmd.Flags().GetString("auth-password")
	if err != nil {
		return err
	}
	token, err := cmd.Flags().GetString("auth-token")
	if err != nil {
		return err
	}
	header, err := cmd.Flags().GetString("auth-header")
	if err != nil {
		return err
	}

	switch {
	case token != "":
		cfg.Auth = config.Auth{Type: "bearer", Token: token}
	case user != "":
		cfg.Auth = config.Auth{Type: "basic", Username: user, Password: password}
	case header != "":
		name, value, ok := splitHeaderFlag(header)
		if !ok {
			return fmt.Errorf("invalid --auth-header %q, expected \"Name: value\"", header)
		}
		cfg.Auth = config.Auth{Type: "header", HeaderName: name, HeaderValue: value}
	}
	return nil
}

// splitHeaderFlag parses a "Name: value" flag value.
func splitHeaderFlag(s string) (name, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			name = s[:i]
			value = s[i+1:]
			for len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
			return name, value, name != ""
		}
	}
	return "", "", false
}

// applySiteOverrides loads the .webscan file and applies the section
// matching the target host. An explicitly given file must exist; the
// default lookup is best-effort.
func applySiteOverrides(cmd *cobra.Command, cfg *config.Config) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	explicit := configPath != ""

	found := config.FindFile(configPath)
	if found == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil
	}

	file, err := config.LoadFile(found)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", found, err)
	}

	target, err := url.Parse(cfg.TargetURL)
	if err != nil {
		// Validation reports the malformed target later with a
		// clearer error.
		return nil
	}

	file.SiteFor(target.Hostname()).Apply(cfg)
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

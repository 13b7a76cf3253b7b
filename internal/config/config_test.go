package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfigDefaults tests that the constructor fills sensible defaults.
func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("expected default max pages %d, got %d", DefaultMaxPages, cfg.MaxPages)
	}
	if !cfg.CacheEnabled {
		t.Error("expected caching enabled by default")
	}
	if cfg.UserAgent == "" {
		t.Error("expected non-empty default user agent")
	}
}

// TestConfigValidate tests field validation and sentinel errors.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.TargetURL = "https://example.com"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty target", func(c *Config) { c.TargetURL = "" }, ErrNoTarget},
		{"relative target", func(c *Config) { c.TargetURL = "/just/a/path" }, ErrInvalidTarget},
		{"non-http scheme", func(c *Config) { c.TargetURL = "ftp://example.com" }, ErrInvalidTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, ErrInvalidMaxDepth},
		{"negative crawl delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"zero fetch concurrency", func(c *Config) { c.FetchConcurrency = 0 }, ErrInvalidConcurrency},
		{"zero module concurrency", func(c *Config) { c.ModuleConcurrency = 0 }, ErrInvalidConcurrency},
		{"zero cache capacity with cache on", func(c *Config) { c.CacheCapacity = 0 }, ErrInvalidCacheCapacity},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"unknown auth type", func(c *Config) { c.Auth.Type = "ntlm" }, ErrInvalidAuthType},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("cache capacity ignored when cache disabled", func(t *testing.T) {
		t.Parallel()

		cfg := valid()
		cfg.CacheEnabled = false
		cfg.CacheCapacity = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config with cache disabled, got %v", err)
		}
	})
}

// TestLoadFile tests loading the YAML overrides file.
func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".webscan")
		content := `
defaults:
  crawlDelay: 1s
sites:
  example.com:
    maxDepth: 3
    excludePatterns:
      - "/logout*"
    disabledModules:
      - metadata
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadFile(path)
		if err != nil {
			t.Fatalf("failed to load file: %v", err)
		}

		sc := cf.SiteFor("example.com")
		if sc.MaxDepth != 3 {
			t.Errorf("expected depth 3, got %d", sc.MaxDepth)
		}
		if sc.CrawlDelay != Duration(time.Second) {
			t.Errorf("expected default delay 1s, got %v", time.Duration(sc.CrawlDelay))
		}
		if len(sc.ExcludePatterns) != 1 || sc.ExcludePatterns[0] != "/logout*" {
			t.Errorf("unexpected exclude patterns %v", sc.ExcludePatterns)
		}

		// Unknown hosts get only the defaults.
		other := cf.SiteFor("other.com")
		if other.MaxDepth != 0 || other.CrawlDelay != Duration(time.Second) {
			t.Errorf("unexpected merged defaults %+v", other)
		}
	})

	t.Run("missing file returns sentinel", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestSiteConfigApply tests merging overrides into a Config.
func TestSiteConfigApply(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.TargetURL = "https://example.com"

	sc := SiteConfig{
		Auth:            &Auth{Type: "bearer", Token: "tok"},
		MaxDepth:        2,
		CrawlDelay:      Duration(2 * time.Second),
		DisabledModules: []string{"metadata"},
	}
	sc.Apply(cfg)

	if cfg.Auth.Type != "bearer" {
		t.Errorf("expected bearer auth, got %q", cfg.Auth.Type)
	}
	if cfg.MaxDepth != 2 {
		t.Errorf("expected depth 2, got %d", cfg.MaxDepth)
	}
	if cfg.CrawlDelay != 2*time.Second {
		t.Errorf("expected delay 2s, got %v", cfg.CrawlDelay)
	}
	if len(cfg.DisabledModules) != 1 || cfg.DisabledModules[0] != "metadata" {
		t.Errorf("unexpected disabled modules %v", cfg.DisabledModules)
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agobrik/webtesttool-sub001/internal/config"
)

// parseScanFlags builds a Config through the scan command's flag set.
func parseScanFlags(t *testing.T, args ...string) *config.Config {
	t.Helper()

	cmd := NewScanCmd()
	cmd.PersistentFlags().BoolP("verbose", "v", false, "")
	if err := cmd.ParseFlags(args[:len(args)-1]); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	cfg, err := buildConfig(cmd, args[len(args)-1:])
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	return cfg
}

func TestBuildConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := parseScanFlags(t, "https://example.com")

	if cfg.TargetURL != "https://example.com" {
		t.Errorf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.MaxDepth != config.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want default", cfg.MaxDepth)
	}
	if !cfg.CacheEnabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Auth.Enabled() {
		t.Error("auth should be off by default")
	}
}

func TestBuildConfig_Flags(t *testing.T) {
	t.Parallel()

	cfg := parseScanFlags(t,
		"--depth", "2",
		"--max-pages", "5",
		"--delay", "0s",
		"--no-cache",
		"--exclude", "/admin/*",
		"--enable", "security",
		"--enable", "seo",
		"--timeout", "5s",
		"https://example.com",
	)

	if cfg.MaxDepth != 2 || cfg.MaxPages != 5 {
		t.Errorf("limits = depth %d, pages %d", cfg.MaxDepth, cfg.MaxPages)
	}
	if cfg.CacheEnabled {
		t.Error("--no-cache should disable the cache")
	}
	if len(cfg.ExcludePatterns) != 1 || cfg.ExcludePatterns[0] != "/admin/*" {
		t.Errorf("ExcludePatterns = %v", cfg.ExcludePatterns)
	}
	if len(cfg.EnabledModules) != 2 {
		t.Errorf("EnabledModules = %v", cfg.EnabledModules)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestBuildConfig_Auth(t *testing.T) {
	t.Parallel()

	t.Run("bearer", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t, "--auth-token", "tok", "https://example.com")
		if cfg.Auth.Type != "bearer" || cfg.Auth.Token != "tok" {
			t.Errorf("Auth = %+v", cfg.Auth)
		}
	})

	t.Run("basic", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t, "--auth-user", "u", "--auth-password", "p", "https://example.com")
		if cfg.Auth.Type != "basic" || cfg.Auth.Username != "u" || cfg.Auth.Password != "p" {
			t.Errorf("Auth = %+v", cfg.Auth)
		}
	})

	t.Run("custom header", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t, "--auth-header", "X-Api-Key: secret", "https://example.com")
		if cfg.Auth.Type != "header" || cfg.Auth.HeaderName != "X-Api-Key" || cfg.Auth.HeaderValue != "secret" {
			t.Errorf("Auth = %+v", cfg.Auth)
		}
	})
}

func TestSplitHeaderFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		name, val string
		ok        bool
	}{
		{"X-Api-Key: secret", "X-Api-Key", "secret", true},
		{"X-Api-Key:secret", "X-Api-Key", "secret", true},
		{"no-colon", "", "", false},
		{": empty-name", "", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			name, val, ok := splitHeaderFlag(tt.in)
			if name != tt.name || val != tt.val || ok != tt.ok {
				t.Errorf("splitHeaderFlag(%q) = %q, %q, %v", tt.in, name, val, ok)
			}
		})
	}
}

func TestBuildConfig_SiteOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".webscan")
	overrides := `sites:
  example.com:
    maxDepth: 2
    excludePatterns: ["/logout*"]
    disabledModules: ["metadata"]
`
	if err := os.WriteFile(path, []byte(overrides), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := parseScanFlags(t, "--config", path, "https://example.com/app")

	if cfg.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want the override", cfg.MaxDepth)
	}
	if len(cfg.ExcludePatterns) == 0 || cfg.ExcludePatterns[len(cfg.ExcludePatterns)-1] != "/logout*" {
		t.Errorf("ExcludePatterns = %v", cfg.ExcludePatterns)
	}
	if len(cfg.DisabledModules) != 1 || cfg.DisabledModules[0] != "metadata" {
		t.Errorf("DisabledModules = %v", cfg.DisabledModules)
	}
}

func TestBuildConfig_MissingExplicitConfig(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()
	cmd.PersistentFlags().BoolP("verbose", "v", false, "")
	if err := cmd.ParseFlags([]string{"--config", "/no/such/file"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	if _, err := buildConfig(cmd, []string{"https://example.com"}); err == nil {
		t.Error("an explicitly named missing config file should be an error")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default overrides file name.
const DefaultConfigFile = ".webscan"

// ErrConfigNotFound is returned when the overrides file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration wraps time.Duration so YAML values like "1s" or "500ms" parse
// with time.ParseDuration instead of requiring raw nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// SiteConfig holds site-specific overrides for a single host.
// This allows customizing scan behavior per target without changing flags.
type SiteConfig struct {
	// Auth overrides the authentication descriptor for this host.
	Auth *Auth `yaml:"auth,omitempty"`

	// MaxDepth overrides the global crawl depth. Zero means no override.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// MaxPages overrides the global page budget. Zero means no override.
	MaxPages int `yaml:"maxPages,omitempty"`

	// CrawlDelay overrides the per-host request delay.
	CrawlDelay Duration `yaml:"crawlDelay,omitempty"`

	// IncludePatterns restricts crawling to matching URL paths.
	IncludePatterns []string `yaml:"includePatterns,omitempty"`

	// ExcludePatterns skips matching URL paths.
	ExcludePatterns []string `yaml:"excludePatterns,omitempty"`

	// DisabledModules lists module names that must not run for this host.
	DisabledModules []string `yaml:"disabledModules,omitempty"`
}

// File represents the structure of the .webscan overrides file.
type File struct {
	// Sites maps hostnames to their site-specific overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// site-specific entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// LoadFile loads site overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound so callers can
// decide whether a missing file is an error (explicit path) or not.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	return &cf, nil
}

// FindFile searches for the overrides file:
//  1. The explicit path, if given
//  2. .webscan in the current directory
//  3. .webscan in the user's home directory
//
// Returns the path if found, or the empty string.
func FindFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// SiteFor returns the merged overrides for a host: defaults first,
// then the site-specific entry where set.
func (cf *File) SiteFor(host string) SiteConfig {
	result := cf.Defaults

	sc, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if sc.Auth != nil {
		result.Auth = sc.Auth
	}
	if sc.MaxDepth != 0 {
		result.MaxDepth = sc.MaxDepth
	}
	if sc.MaxPages != 0 {
		result.MaxPages = sc.MaxPages
	}
	if sc.CrawlDelay != 0 {
		result.CrawlDelay = sc.CrawlDelay
	}
	if len(sc.IncludePatterns) > 0 {
		result.IncludePatterns = sc.IncludePatterns
	}
	if len(sc.ExcludePatterns) > 0 {
		result.ExcludePatterns = sc.ExcludePatterns
	}
	if len(sc.DisabledModules) > 0 {
		result.DisabledModules = sc.DisabledModules
	}

	return result
}

// Apply merges the site overrides into the Config.
func (sc SiteConfig) Apply(c *Config) {
	if sc.Auth != nil {
		c.Auth = *sc.Auth
	}
	if sc.MaxDepth != 0 {
		c.MaxDepth = sc.MaxDepth
	}
	if sc.MaxPages != 0 {
		c.MaxPages = sc.MaxPages
	}
	if sc.CrawlDelay != 0 {
		c.CrawlDelay = time.Duration(sc.CrawlDelay)
	}
	if len(sc.IncludePatterns) > 0 {
		c.IncludePatterns = sc.IncludePatterns
	}
	if len(sc.ExcludePatterns) > 0 {
		c.ExcludePatterns = sc.ExcludePatterns
	}
	if len(sc.DisabledModules) > 0 {
		c.DisabledModules = append(c.DisabledModules, sc.DisabledModules...)
	}
}

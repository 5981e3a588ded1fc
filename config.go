package staticpress

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the well-known configuration file at the site root.
const ConfigFileName = "_config.yml"

// SiteConfig holds all site-wide settings, loaded once from _config.yml and
// never mutated afterwards. Every component receives it by value.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Required: site name
	Description string `yaml:"description"` // Site description for the feed and meta tags
	Author      string `yaml:"author"`      // Author name for the feed
	Avatar      string `yaml:"avatar"`      // Avatar/logo URL

	URL     string `yaml:"url"`     // Canonical URL, e.g. "https://example.org"
	BaseURL string `yaml:"baseurl"` // Subpath prefix when the site is not served from the root

	Permalink string `yaml:"permalink"` // Output path pattern (default "/:title/")
	Timezone  string `yaml:"timezone"`  // IANA zone for dates without an explicit offset
	Markdown  string `yaml:"markdown"`  // Markdown flavor (default "gfm")

	FooterLinks map[string]string `yaml:"footer-links"` // platform name -> handle/URL
	Plugins     []string          `yaml:"plugins"`      // generator names, e.g. jekyll-sitemap
	Exclude     []string          `yaml:"exclude"`      // paths/globs the scanner must skip

	// Extra preserves unrecognized keys and passes them through to templates
	// unvalidated.
	Extra map[string]any `yaml:"-"`
}

func (c *SiteConfig) setDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:4000"
	}
	if c.Permalink == "" {
		c.Permalink = "/:title/"
	}
	if c.Markdown == "" {
		c.Markdown = "gfm"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// knownConfigKeys are the keys decoded into named SiteConfig fields; anything
// else lands in Extra.
var knownConfigKeys = map[string]struct{}{
	"name": {}, "description": {}, "author": {}, "avatar": {},
	"url": {}, "baseurl": {}, "permalink": {}, "timezone": {},
	"markdown": {}, "footer-links": {}, "plugins": {}, "exclude": {},
}

// LoadConfig reads and parses the configuration file at path.
//
// It returns a *ConfigParseError for malformed YAML and a
// *ConfigValidationError when a required field is absent. Same bytes in,
// same SiteConfig out: nothing here depends on the environment.
func LoadConfig(path string) (SiteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, &ConfigParseError{Path: path, Err: err}
	}
	return ParseConfig(path, raw)
}

// ParseConfig parses raw _config.yml bytes. The path parameter is used only
// for error reporting.
func ParseConfig(path string, raw []byte) (SiteConfig, error) {
	var cfg SiteConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return SiteConfig{}, &ConfigParseError{Path: path, Err: err}
	}

	// Second pass into a generic map to pick up pass-through keys.
	var all map[string]any
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return SiteConfig{}, &ConfigParseError{Path: path, Err: err}
	}
	for k, v := range all {
		if _, known := knownConfigKeys[k]; known {
			continue
		}
		if cfg.Extra == nil {
			cfg.Extra = make(map[string]any)
		}
		cfg.Extra[k] = v
	}

	if cfg.Name == "" {
		return SiteConfig{}, &ConfigValidationError{Path: path, Field: "name", Msg: "site name is required"}
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional Engine behavior.
type Option func(*Engine)

// WithSourceDir sets the site source directory (default ".").
func WithSourceDir(dir string) Option {
	return func(e *Engine) { e.SourceDir = dir }
}

// WithOutputDir sets the build output directory (default "_site").
func WithOutputDir(dir string) Option {
	return func(e *Engine) { e.OutputDir = dir }
}

// WithLogger sets the engine's logger (default slog.Default()).
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.Log = log }
}

// WithWorkers bounds the per-document render worker pool.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithKeepGoing switches the build from halt-on-first-error to
// continue-on-error: every per-document failure is collected and reported
// in aggregate at the end.
func WithKeepGoing() Option {
	return func(e *Engine) { e.keepGoing = true }
}

// WithIncremental enables the build cache at the given database path;
// unchanged documents are skipped on rebuild.
func WithIncremental(cachePath string) Option {
	return func(e *Engine) { e.cachePath = cachePath }
}

// WithImageMaxWidth enables downscaling of static JPEG assets wider than
// maxWidth pixels.
func WithImageMaxWidth(maxWidth int) Option {
	return func(e *Engine) { e.imageMaxWidth = maxWidth }
}

// WithGenerator registers an extra named generator so configs can list
// plugins beyond the built-in sitemap and feed.
func WithGenerator(g Generator) Option {
	return func(e *Engine) {
		if e.extraGenerators == nil {
			e.extraGenerators = make(map[string]Generator)
		}
		e.extraGenerators[g.Name()] = g
	}
}

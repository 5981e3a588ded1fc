package staticpress

import "log/slog"

// Site is the read-only aggregate view handed to generators after every
// document has resolved its output path and been rendered.
type Site struct {
	Config    SiteConfig
	Documents []*Document
	Pages     []*RenderedPage
}

// Generator is a post-processing stage producing an auxiliary artifact
// (sitemap, feed) from the assembled site. Generators run after the
// per-document join point and never mutate documents.
type Generator interface {
	Name() string
	Generate(site *Site, outputRoot string) error
}

// builtinGenerators maps the plugin names accepted in _config.yml to their
// implementations. The Jekyll plugin names are kept so existing configs work
// unchanged.
var builtinGenerators = map[string]Generator{
	"jekyll-sitemap": &SitemapGenerator{},
	"jekyll-feed":    &FeedGenerator{},
}

// generatorsFor resolves the configured plugin list against the registry and
// any extra generators registered on the engine. Unknown names are skipped
// with a warning rather than failing the build.
func generatorsFor(cfg SiteConfig, extra map[string]Generator, log *slog.Logger) []Generator {
	var gens []Generator
	for _, name := range cfg.Plugins {
		if g, ok := extra[name]; ok {
			gens = append(gens, g)
			continue
		}
		if g, ok := builtinGenerators[name]; ok {
			gens = append(gens, g)
			continue
		}
		log.Warn("unknown plugin, skipping", "plugin", name)
	}
	return gens
}

// Package staticpress is a Jekyll-style static site generator. It reads a
// _config.yml, scans a source tree for front-mattered Markdown documents and
// static assets, renders them through _layouts/ templates with goldmark, and
// assembles an output directory together with sitemap and feed artifacts.
//
// The pipeline is strictly one-directional: config -> scan -> parse ->
// render -> permalink -> assemble. Documents never feed back into each other;
// per-document rendering is the only parallel stage.
package staticpress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultOutputDir is where the assembled site lands unless overridden.
const DefaultOutputDir = "_site"

const defaultWorkers = 4

// Engine wires the whole build pipeline together: configuration, scanner,
// renderer, assembler and the optional incremental cache.
type Engine struct {
	Config    SiteConfig
	SourceDir string
	OutputDir string
	Log       *slog.Logger

	workers         int
	keepGoing       bool
	cachePath       string
	imageMaxWidth   int
	extraGenerators map[string]Generator
}

// New creates an Engine for the given configuration.
func New(cfg SiteConfig, opts ...Option) *Engine {
	e := &Engine{
		Config:    cfg,
		SourceDir: ".",
		OutputDir: DefaultOutputDir,
		Log:       slog.Default(),
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build runs the full pipeline once.
//
// With the default halt-on-first-error policy the first failing document
// aborts the build. With WithKeepGoing every per-document failure is
// collected; the returned error then joins them all, so a failing document
// is never silently dropped from the output. Configuration problems
// (including an unknown timezone) are always fatal before any document is
// touched.
func (e *Engine) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}

	loc, err := time.LoadLocation(e.Config.Timezone)
	if err != nil {
		return nil, &ConfigValidationError{Path: ConfigFileName, Field: "timezone", Msg: err.Error()}
	}

	layouts, err := LoadLayouts(filepath.Join(e.SourceDir, LayoutsDirName), TemplateFuncs(e.Config))
	if err != nil {
		return nil, err
	}

	paths, err := Scan(e.SourceDir, e.Config)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	for _, rel := range paths {
		doc, err := LoadDocument(e.SourceDir, rel, loc)
		if err != nil {
			if !e.keepGoing {
				return nil, err
			}
			result.Errors = append(result.Errors, err)
			continue
		}
		out, err := OutputPathFor(e.Config, doc)
		if err != nil {
			if !e.keepGoing {
				return nil, err
			}
			result.Errors = append(result.Errors, err)
			continue
		}
		doc.OutputPath = out
		docs = append(docs, doc)
	}

	// Collisions are always fatal: neither destination may be written.
	if err := DetectCollisions(docs); err != nil {
		return nil, err
	}

	cache, err := e.openCache()
	if err != nil {
		return nil, err
	}
	if cache != nil {
		defer cache.Close()
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("staticpress: prepare output dir: %w", err)
	}

	pages, fresh, renderErrs, err := e.renderAll(ctx, docs, layouts, cache)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, renderErrs...)
	for _, f := range fresh {
		if f {
			result.Skipped++
		}
	}

	// Join point: aggregate artifacts run only after every document has
	// fully resolved and rendered.
	if err := e.writePages(docs, pages, cache, result); err != nil {
		return nil, err
	}
	if err := e.runGenerators(docs, pages, fresh); err != nil {
		return nil, err
	}
	if err := e.pruneCache(cache, docs); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	if len(result.Errors) > 0 {
		return result, errors.Join(result.Errors...)
	}
	e.Log.Info("build complete",
		"pages", result.Pages, "statics", result.Statics,
		"skipped", result.Skipped, "duration", result.Duration)
	return result, nil
}

func (e *Engine) openCache() (*BuildCache, error) {
	if e.cachePath == "" {
		return nil, nil
	}
	cache, err := OpenBuildCache(e.cachePath)
	if err != nil {
		return nil, fmt.Errorf("staticpress: open build cache: %w", err)
	}
	gen, err := GenerationHash(filepath.Join(e.SourceDir, ConfigFileName), filepath.Join(e.SourceDir, LayoutsDirName))
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("staticpress: hash site generation: %w", err)
	}
	if err := cache.SetGeneration(gen); err != nil {
		cache.Close()
		return nil, fmt.Errorf("staticpress: store generation: %w", err)
	}
	return cache, nil
}

// renderAll renders every document through a bounded worker pool. Results
// land in a pre-sized slice with one slot per document index, so workers
// never contend on a shared collection and output order is deterministic.
// A nil slot marks either a document the cache proved unchanged (fresh[i]
// true) or, under keep-going, one whose render failed.
func (e *Engine) renderAll(ctx context.Context, docs []*Document, layouts *Layouts, cache *BuildCache) (pages []*RenderedPage, fresh []bool, docErrs []error, err error) {
	renderer := NewRenderer(e.Config, layouts)
	pages = make([]*RenderedPage, len(docs))
	fresh = make([]bool, len(docs))
	errs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		if cache != nil && e.cacheFresh(cache, doc) {
			fresh[i] = true
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, rerr := renderer.Render(doc)
			if rerr != nil {
				if e.keepGoing {
					errs[i] = rerr
					return nil
				}
				return rerr
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	for _, derr := range errs {
		if derr != nil {
			docErrs = append(docErrs, derr)
		}
	}
	return pages, fresh, docErrs, nil
}

// cacheFresh reports whether doc's cached entry still matches its content,
// output path and an existing output file.
func (e *Engine) cacheFresh(cache *BuildCache, doc *Document) bool {
	hash, output, ok, err := cache.Lookup(doc.SourcePath)
	if err != nil || !ok {
		return false
	}
	if hash != doc.ContentHash || output != doc.OutputPath {
		return false
	}
	target := filepath.Join(e.OutputDir, filepath.FromSlash(FilePathFor(doc.OutputPath)))
	_, statErr := os.Stat(target)
	return statErr == nil
}

func (e *Engine) writePages(docs []*Document, pages []*RenderedPage, cache *BuildCache, result *BuildResult) error {
	for i, page := range pages {
		if page == nil {
			continue // skipped by the cache
		}
		doc := docs[i]
		if doc.Static {
			optimized, rewritten, err := OptimizeImage(doc.SourcePath, page.HTML, e.imageMaxWidth)
			if err != nil {
				e.Log.Warn("image optimization failed, copying original", "path", doc.SourcePath, "error", err)
			} else if rewritten {
				page.HTML = optimized
			}
			result.Statics++
		} else {
			result.Pages++
		}
		if err := WritePage(e.OutputDir, page); err != nil {
			return err
		}
		if cache != nil {
			if err := cache.Record(doc.SourcePath, doc.ContentHash, doc.OutputPath); err != nil {
				return fmt.Errorf("staticpress: record cache entry: %w", err)
			}
		}
	}
	return nil
}

func (e *Engine) runGenerators(docs []*Document, pages []*RenderedPage, fresh []bool) error {
	now := time.Now().UTC()
	rendered := make([]*RenderedPage, 0, len(pages))
	included := make([]*Document, 0, len(docs))
	for i, page := range pages {
		doc := docs[i]
		if page == nil {
			if !fresh[i] {
				// Render failed under keep-going: the document has no
				// output file, so it must not surface in aggregate
				// artifacts either.
				continue
			}
			// Cache-skipped documents still appear in aggregate
			// artifacts; only the HTML was not re-rendered. Same
			// last-modified fallback as the renderer so incremental
			// and full builds emit the same sitemap.
			lastMod := doc.Date
			if lastMod.IsZero() {
				lastMod = now
			}
			page = &RenderedPage{
				OutputPath: doc.OutputPath,
				SourcePath: doc.SourcePath,
				LastMod:    lastMod,
			}
		}
		rendered = append(rendered, page)
		included = append(included, doc)
	}
	site := &Site{Config: e.Config, Documents: included, Pages: rendered}
	for _, gen := range generatorsFor(e.Config, e.extraGenerators, e.Log) {
		if err := gen.Generate(site, e.OutputDir); err != nil {
			return fmt.Errorf("staticpress: generator %s: %w", gen.Name(), err)
		}
	}
	return nil
}

func (e *Engine) pruneCache(cache *BuildCache, docs []*Document) error {
	if cache == nil {
		return nil
	}
	current := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		current[d.SourcePath] = struct{}{}
	}
	cached, err := cache.Sources()
	if err != nil {
		return err
	}
	var stale []string
	for _, s := range cached {
		if _, ok := current[s]; !ok {
			stale = append(stale, s)
		}
	}
	return cache.Forget(stale)
}

// Clean removes the output directory.
func (e *Engine) Clean() error {
	if err := os.RemoveAll(e.OutputDir); err != nil {
		return fmt.Errorf("staticpress: clean %s: %w", e.OutputDir, err)
	}
	return nil
}

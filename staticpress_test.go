package staticpress

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestSite writes a minimal but complete site into a temp dir and
// returns the source root plus a parsed config.
func setupTestSite(t *testing.T, extraFiles map[string]string) (string, SiteConfig) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"_config.yml": `name: Test Site
url: "https://example.org"
plugins:
  - jekyll-sitemap
  - jekyll-feed
`,
		"_layouts/default.html": "<html><body>{{ .Content }}</body></html>",
		"_layouts/post.html":    "---\nlayout: default\n---\n<article><h1>{{ .Page.title }}</h1>{{ .Content }}</article>",
		"index.md":              "---\nlayout: default\ntitle: Home\n---\nWelcome.\n",
		"_posts/2024-01-15-hello-world.md": `---
layout: post
title: Hello World
---
First post.
`,
		"assets/style.css": "body { margin: 0 }\n",
	}
	for k, v := range extraFiles {
		files[k] = v
	}
	writeSiteFiles(t, root, files)

	cfg, err := LoadConfig(filepath.Join(root, ConfigFileName))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	return root, cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEngine(t *testing.T, root string, cfg SiteConfig, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithSourceDir(root),
		WithOutputDir(filepath.Join(root, DefaultOutputDir)),
		WithLogger(quietLogger()),
	}
	return New(cfg, append(base, opts...)...)
}

func TestBuildFullSite(t *testing.T) {
	root, cfg := setupTestSite(t, nil)
	e := newTestEngine(t, root, cfg)

	result, err := e.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.Pages != 2 {
		t.Errorf("Pages = %d, want 2", result.Pages)
	}
	if result.Statics != 1 {
		t.Errorf("Statics = %d, want 1", result.Statics)
	}

	out := e.OutputDir
	for _, rel := range []string{
		"index.html",
		"hello-world/index.html",
		"assets/style.css",
		SitemapFileName,
		FeedFileName,
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected output %s: %v", rel, err)
		}
	}

	post, err := os.ReadFile(filepath.Join(out, "hello-world", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(post)
	if !strings.Contains(html, "<h1>Hello World</h1>") {
		t.Errorf("post title missing: %s", html)
	}
	if !strings.Contains(html, "<body>") || !strings.Contains(html, "<article>") {
		t.Errorf("nested layouts not applied: %s", html)
	}
}

func TestBuildCollisionWritesNothing(t *testing.T) {
	root, cfg := setupTestSite(t, map[string]string{
		// Both resolve to /hello-world/, colliding with the post.
		"hello-world.md": "---\ntitle: Other\nlayout: default\n---\nx\n",
	})
	e := newTestEngine(t, root, cfg)

	_, err := e.Build(context.Background())
	var cerr *OutputCollisionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *OutputCollisionError", err)
	}
	if cerr.FirstSource == "" || cerr.SecondSource == "" {
		t.Errorf("collision must name both sources: %+v", cerr)
	}
	if _, statErr := os.Stat(filepath.Join(e.OutputDir, "hello-world", "index.html")); statErr == nil {
		t.Error("colliding output must not be written")
	}
}

func TestBuildHaltsOnFirstError(t *testing.T) {
	root, cfg := setupTestSite(t, map[string]string{
		"broken.md": "---\ntitle: x\nno closing delimiter\n",
	})
	e := newTestEngine(t, root, cfg)

	_, err := e.Build(context.Background())
	var ferr *FrontMatterError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want *FrontMatterError", err)
	}
}

func TestBuildKeepGoingAggregates(t *testing.T) {
	root, cfg := setupTestSite(t, map[string]string{
		"broken.md":  "---\ntitle: x\nno closing delimiter\n",
		"missing.md": "---\nlayout: nonexistent\ntitle: y\n---\nz\n",
	})
	e := newTestEngine(t, root, cfg, WithKeepGoing())

	result, err := e.Build(context.Background())
	if err == nil {
		t.Fatal("keep-going build with failures must still return an error")
	}
	if result == nil {
		t.Fatal("keep-going build should return the partial result")
	}
	if len(result.Errors) != 2 {
		t.Errorf("Errors = %d, want 2: %v", len(result.Errors), result.Errors)
	}
	var ferr *FrontMatterError
	var terr *TemplateNotFoundError
	if !errors.As(err, &ferr) || !errors.As(err, &terr) {
		t.Errorf("aggregate error should carry both failures: %v", err)
	}
	// Healthy documents still built.
	if _, statErr := os.Stat(filepath.Join(e.OutputDir, "index.html")); statErr != nil {
		t.Errorf("healthy page missing: %v", statErr)
	}
}

func TestBuildKeepGoingOmitsFailedFromArtifacts(t *testing.T) {
	root, cfg := setupTestSite(t, map[string]string{
		"missing.md": "---\nlayout: nonexistent\ntitle: Missing Page\n---\nx\n",
		"_posts/2024-02-01-broken-post.md": `---
layout: nonexistent
title: Broken Post
---
x
`,
	})
	e := newTestEngine(t, root, cfg, WithKeepGoing())

	if _, err := e.Build(context.Background()); err == nil {
		t.Fatal("build with failing documents must return an error")
	}
	if _, err := os.Stat(filepath.Join(e.OutputDir, "missing", "index.html")); err == nil {
		t.Fatal("failed page must not be written")
	}

	// A document with no output file must not surface in aggregate
	// artifacts either.
	sitemap, err := os.ReadFile(filepath.Join(e.OutputDir, SitemapFileName))
	if err != nil {
		t.Fatalf("sitemap missing: %v", err)
	}
	if strings.Contains(string(sitemap), "/missing/") || strings.Contains(string(sitemap), "/broken-post/") {
		t.Errorf("failed documents leaked into the sitemap: %s", sitemap)
	}
	if !strings.Contains(string(sitemap), "/hello-world/") {
		t.Error("healthy page absent from the sitemap")
	}

	feed, err := os.ReadFile(filepath.Join(e.OutputDir, FeedFileName))
	if err != nil {
		t.Fatalf("feed missing: %v", err)
	}
	if strings.Contains(string(feed), "Broken Post") {
		t.Errorf("failed post leaked into the feed: %s", feed)
	}
	if !strings.Contains(string(feed), "Hello World") {
		t.Error("healthy post absent from the feed")
	}
}

func TestBuildHonorsExclusions(t *testing.T) {
	root, cfg := setupTestSite(t, map[string]string{
		"drafts/wip.md": "---\ntitle: WIP\nlayout: default\n---\nx\n",
	})
	cfg.Exclude = []string{"drafts"}
	e := newTestEngine(t, root, cfg)

	if _, err := e.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.OutputDir, "drafts")); err == nil {
		t.Error("excluded directory reached the output")
	}
}

func TestBuildBadTimezone(t *testing.T) {
	root, cfg := setupTestSite(t, nil)
	cfg.Timezone = "Not/AZone"
	e := newTestEngine(t, root, cfg)

	_, err := e.Build(context.Background())
	var verr *ConfigValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ConfigValidationError", err)
	}
	if verr.Field != "timezone" {
		t.Errorf("Field = %q, want timezone", verr.Field)
	}
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	root, cfg := setupTestSite(t, nil)
	cachePath := filepath.Join(root, ".cache.db")
	e := newTestEngine(t, root, cfg, WithIncremental(cachePath))

	first, err := e.Build(context.Background())
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if first.Skipped != 0 {
		t.Errorf("first build Skipped = %d, want 0", first.Skipped)
	}

	second, err := e.Build(context.Background())
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	if second.Skipped == 0 {
		t.Error("second build should skip unchanged documents")
	}
	// Aggregate artifacts still present after a fully skipped build, and
	// every page keeps a lastmod: undated pages fall back to build time
	// just like a full build.
	sitemap, err := os.ReadFile(filepath.Join(e.OutputDir, SitemapFileName))
	if err != nil {
		t.Fatalf("sitemap missing after incremental build: %v", err)
	}
	if got := strings.Count(string(sitemap), "<lastmod>"); got != 2 {
		t.Errorf("lastmod count = %d, want 2 (undated page must keep its fallback): %s", got, sitemap)
	}

	// Changing a document invalidates only that entry.
	writeSiteFiles(t, root, map[string]string{
		"index.md": "---\nlayout: default\ntitle: Home\n---\nUpdated.\n",
	})
	third, err := e.Build(context.Background())
	if err != nil {
		t.Fatalf("third Build failed: %v", err)
	}
	if third.Pages != 1 {
		t.Errorf("third build Pages = %d, want 1 (only the edited page)", third.Pages)
	}
	html, err := os.ReadFile(filepath.Join(e.OutputDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Updated.") {
		t.Error("edited page not re-rendered")
	}
}

func TestBuildCustomGenerator(t *testing.T) {
	root, cfg := setupTestSite(t, nil)
	cfg.Plugins = append(cfg.Plugins, "touchfile")
	e := newTestEngine(t, root, cfg, WithGenerator(touchGenerator{}))

	if _, err := e.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.OutputDir, "touched.txt")); err != nil {
		t.Errorf("custom generator did not run: %v", err)
	}
}

type touchGenerator struct{}

func (touchGenerator) Name() string { return "touchfile" }

func (touchGenerator) Generate(site *Site, outputRoot string) error {
	return os.WriteFile(filepath.Join(outputRoot, "touched.txt"), []byte(site.Config.Name), 0o644)
}

func TestClean(t *testing.T) {
	root, cfg := setupTestSite(t, nil)
	e := newTestEngine(t, root, cfg)
	if _, err := e.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := e.Clean(); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if _, err := os.Stat(e.OutputDir); !os.IsNotExist(err) {
		t.Error("output dir should be gone after Clean")
	}
}

package staticpress

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadTestLayouts(t *testing.T, cfg SiteConfig, files map[string]string) *Layouts {
	t.Helper()
	dir := filepath.Join(t.TempDir(), LayoutsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	layouts, err := LoadLayouts(dir, TemplateFuncs(cfg))
	if err != nil {
		t.Fatalf("LoadLayouts failed: %v", err)
	}
	return layouts
}

func TestLoadLayoutsMissingDir(t *testing.T) {
	layouts, err := LoadLayouts(filepath.Join(t.TempDir(), "absent"), nil)
	if err != nil {
		t.Fatalf("a missing layouts dir should not error, got %v", err)
	}
	if layouts.Has("default") {
		t.Error("empty Layouts should have no entries")
	}
}

func TestRenderIdentityLayout(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	layouts := loadTestLayouts(t, cfg, map[string]string{
		"plain.html": "{{ .Content }}",
	})
	r := NewRenderer(cfg, layouts)

	doc := &Document{
		SourcePath: "note.html",
		OutputPath: "/note/",
		Layout:     "plain",
		Body:       []byte("<p>already html</p>"),
		Meta:       map[string]any{},
	}
	page, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// Identity template: the body must come through byte-for-byte.
	if got := strings.TrimSpace(string(page.HTML)); got != "<p>already html</p>" {
		t.Errorf("HTML = %q, want body unchanged", got)
	}
}

func TestRenderMarkdownIntoLayout(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	layouts := loadTestLayouts(t, cfg, map[string]string{
		"post.html": "<article>{{ .Content }}</article>",
	})
	r := NewRenderer(cfg, layouts)

	doc := &Document{
		SourcePath: "_posts/2024-01-01-hi.md",
		OutputPath: "/hi/",
		Layout:     "post",
		Title:      "Hi",
		Body:       []byte("# Heading\n\nSome *text*.\n"),
		Meta:       map[string]any{},
	}
	page, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(page.HTML)
	if !strings.Contains(html, "<article>") {
		t.Errorf("layout wrapper missing: %q", html)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<em>text</em>") {
		t.Errorf("markdown not converted: %q", html)
	}
}

func TestRenderNestedLayouts(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	layouts := loadTestLayouts(t, cfg, map[string]string{
		"default.html": "<html><body>{{ .Content }}</body></html>",
		"post.html":    "---\nlayout: default\n---\n<article>{{ .Content }}</article>",
	})
	r := NewRenderer(cfg, layouts)

	doc := &Document{
		SourcePath: "p.html",
		OutputPath: "/p/",
		Layout:     "post",
		Body:       []byte("inner"),
		Meta:       map[string]any{},
	}
	page, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(page.HTML)
	// Innermost first: article inside body.
	articleAt := strings.Index(html, "<article>")
	bodyAt := strings.Index(html, "<body>")
	if bodyAt == -1 || articleAt == -1 || articleAt < bodyAt {
		t.Errorf("nesting order wrong: %q", html)
	}
}

func TestRenderLayoutCycle(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	layouts := loadTestLayouts(t, cfg, map[string]string{
		"a.html": "---\nlayout: b\n---\n{{ .Content }}",
		"b.html": "---\nlayout: a\n---\n{{ .Content }}",
	})
	r := NewRenderer(cfg, layouts)

	doc := &Document{SourcePath: "x.html", Layout: "a", Body: []byte("x"), Meta: map[string]any{}}
	if _, err := r.Render(doc); err == nil {
		t.Error("a layout cycle should fail, not loop")
	}
}

func TestRenderUnknownLayout(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	layouts := loadTestLayouts(t, cfg, nil)
	r := NewRenderer(cfg, layouts)

	doc := &Document{SourcePath: "x.md", Layout: "missing", Body: []byte("x"), Meta: map[string]any{}}
	_, err := r.Render(doc)
	var terr *TemplateNotFoundError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TemplateNotFoundError", err)
	}
	if terr.Layout != "missing" || terr.Path != "x.md" {
		t.Errorf("error fields = %+v", terr)
	}
}

func TestRenderStaticPassthrough(t *testing.T) {
	cfg := SiteConfig{Name: "Test"}
	r := NewRenderer(cfg, loadTestLayouts(t, cfg, nil))

	raw := []byte("body { margin: 0 }")
	doc := &Document{SourcePath: "style.css", OutputPath: "/style.css", Static: true, Body: raw}
	page, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(page.HTML) != string(raw) {
		t.Errorf("static bytes modified: %q", page.HTML)
	}
}

func TestTemplateDataSiteAndPage(t *testing.T) {
	cfg := SiteConfig{
		Name:  "Blog",
		URL:   "https://example.org",
		Extra: map[string]any{"analytics_id": "UA-1"},
	}
	layouts := loadTestLayouts(t, cfg, map[string]string{
		"meta.html": `{{ .Site.name }}|{{ .Site.analytics_id }}|{{ .Page.title }}|{{ .Page.url }}|{{ .Page.subtitle }}`,
	})
	r := NewRenderer(cfg, layouts)

	doc := &Document{
		SourcePath: "p.html",
		OutputPath: "/p/",
		Layout:     "meta",
		Title:      "Page Title",
		Body:       []byte(""),
		Meta:       map[string]any{"subtitle": "extra meta"},
	}
	page, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "Blog|UA-1|Page Title|/p/|extra meta"
	if got := strings.TrimSpace(string(page.HTML)); got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

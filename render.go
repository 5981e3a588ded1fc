package staticpress

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/eringen/staticpress/frontmatter"
	"github.com/eringen/staticpress/markdown"
)

// LayoutsDirName is the conventional layouts directory at the site root.
const LayoutsDirName = "_layouts"

// maxLayoutDepth bounds nested layout wrapping so a layout cycle
// (post -> default -> post) cannot recurse forever.
const maxLayoutDepth = 10

// layout is one parsed template from _layouts/. A layout may itself carry
// front matter naming a parent layout; rendered output is wrapped innermost
// first.
type layout struct {
	tmpl   *template.Template
	parent string
}

// Layouts holds every template under _layouts/, keyed by file name without
// extension.
type Layouts struct {
	byName map[string]*layout
}

// LoadLayouts parses all .html files in dir. A missing directory is not an
// error: a site may consist purely of layout-less documents.
func LoadLayouts(dir string, funcs template.FuncMap) (*Layouts, error) {
	l := &Layouts{byName: make(map[string]*layout)}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, &ScanIOError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".html") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, &ScanIOError{Path: filepath.Join(dir, name), Err: err}
		}
		header, body, found, err := frontmatter.Split(raw)
		if err != nil {
			return nil, &FrontMatterError{Path: filepath.Join(dir, name), Err: err}
		}
		parent := ""
		if found {
			meta, err := frontmatter.Parse(header)
			if err != nil {
				return nil, &FrontMatterError{Path: filepath.Join(dir, name), Err: err}
			}
			if p, ok := meta["layout"].(string); ok {
				parent = p
			}
		}
		key := strings.TrimSuffix(name, ".html")
		tmpl, err := template.New(key).Funcs(funcs).Parse(string(body))
		if err != nil {
			return nil, fmt.Errorf("staticpress: parse layout %s: %w", name, err)
		}
		l.byName[key] = &layout{tmpl: tmpl, parent: parent}
	}
	return l, nil
}

// Has reports whether a layout with the given name exists.
func (l *Layouts) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Renderer turns parsed Documents into RenderedPages: markdown conversion
// for .md bodies, then layout template application. Safe for concurrent use
// across documents.
type Renderer struct {
	cfg     SiteConfig
	layouts *Layouts
	md      *markdown.Converter
	now     time.Time
}

// NewRenderer builds a Renderer over the given layouts.
func NewRenderer(cfg SiteConfig, layouts *Layouts) *Renderer {
	return &Renderer{
		cfg:     cfg,
		layouts: layouts,
		md:      markdown.New(cfg.Markdown),
		now:     time.Now().UTC(),
	}
}

// TemplateFuncs returns the helper functions available inside layouts.
// Dates format as ISO-8601 only; locale-dependent formatting is deliberately
// unavailable so output is reproducible.
func TemplateFuncs(cfg SiteConfig) template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"absolute_url": func(p string) string {
			return AbsoluteURL(cfg, p)
		},
		"slugify": Slugify,
	}
}

// Render produces the final HTML for doc. Static documents pass through
// unchanged. An unresolvable layout name fails with *TemplateNotFoundError.
func (r *Renderer) Render(doc *Document) (*RenderedPage, error) {
	page := &RenderedPage{
		OutputPath: doc.OutputPath,
		SourcePath: doc.SourcePath,
		LastMod:    r.lastMod(doc),
	}
	if doc.Static {
		page.HTML = doc.Body
		return page, nil
	}

	content := doc.Body
	if isMarkdownPath(doc.SourcePath) {
		converted, err := r.md.Convert(doc.Body)
		if err != nil {
			return nil, fmt.Errorf("staticpress: render %s: %w", doc.SourcePath, err)
		}
		content = converted
	}

	html, err := r.applyLayouts(doc, content)
	if err != nil {
		return nil, err
	}
	page.HTML = html
	return page, nil
}

func (r *Renderer) lastMod(doc *Document) time.Time {
	if doc.HasDate() {
		return doc.Date
	}
	return r.now
}

// applyLayouts wraps content in the document's layout chain, innermost
// first.
func (r *Renderer) applyLayouts(doc *Document, content []byte) ([]byte, error) {
	name := doc.Layout
	for depth := 0; name != "" && name != "none"; depth++ {
		if depth >= maxLayoutDepth {
			return nil, fmt.Errorf("staticpress: %s: layout nesting deeper than %d (cycle?)", doc.SourcePath, maxLayoutDepth)
		}
		lay, ok := r.layouts.byName[name]
		if !ok {
			return nil, &TemplateNotFoundError{Layout: name, Path: doc.SourcePath}
		}

		var buf bytes.Buffer
		data := r.templateData(doc, content)
		if err := lay.tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("staticpress: execute layout %s for %s: %w", name, doc.SourcePath, err)
		}
		content = buf.Bytes()
		name = lay.parent
	}
	return content, nil
}

// templateData assembles the .Site / .Page / .Content namespaces layouts see.
func (r *Renderer) templateData(doc *Document, content []byte) map[string]any {
	site := map[string]any{
		"name":        r.cfg.Name,
		"description": r.cfg.Description,
		"author":      r.cfg.Author,
		"avatar":      r.cfg.Avatar,
		"url":         r.cfg.URL,
		"baseurl":     r.cfg.BaseURL,
		"footerlinks": r.cfg.FooterLinks,
	}
	for k, v := range r.cfg.Extra {
		site[k] = v
	}

	page := map[string]any{
		"title": doc.Title,
		"url":   doc.OutputPath,
		"tags":  doc.Tags,
	}
	if doc.HasDate() {
		page["date"] = doc.Date.Format("2006-01-02")
	}
	for k, v := range doc.Meta {
		if _, taken := page[k]; !taken {
			page[k] = v
		}
	}

	return map[string]any{
		"Site":    site,
		"Page":    page,
		"Content": template.HTML(content),
	}
}

func isMarkdownPath(rel string) bool {
	switch strings.ToLower(path.Ext(rel)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

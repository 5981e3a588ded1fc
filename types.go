package staticpress

import "time"

// Document is one content file flowing through the build pipeline. It is
// created by the scanner, filled in by the front-matter parser, given an
// output path by the permalink resolver, and discarded once the site is
// assembled.
type Document struct {
	SourcePath string // path relative to the site source root

	Meta   map[string]any // front-matter fields, arbitrary key -> scalar
	Layout string         // front-matter "layout", empty for none
	Title  string         // front-matter "title", falls back to the filename
	Tags   []string       // front-matter "tags"
	Date   time.Time      // front-matter "date" or the _posts filename date
	Body   []byte         // raw body with front matter stripped

	IsPost bool // lives under _posts/ and participates in the feed
	Static bool // no front matter: copied through byte-for-byte

	// ContentHash is the SHA-256 of the raw source bytes, used by the
	// incremental build cache.
	ContentHash string

	// OutputPath is the root-relative destination, e.g. "/hello-world/".
	// Set by the permalink resolver; must be unique across the site.
	OutputPath string
}

// HasDate reports whether the document carries a publish date.
func (d *Document) HasDate() bool { return !d.Date.IsZero() }

// RenderedPage is the renderer's output for one document, owned by the site
// assembler until written.
type RenderedPage struct {
	OutputPath string
	HTML       []byte
	SourcePath string
	LastMod    time.Time
}

// BuildResult summarizes one completed (or aborted) build.
type BuildResult struct {
	Pages    int           // pages written
	Statics  int           // static files copied
	Skipped  int           // documents skipped by the incremental cache
	Duration time.Duration

	// Errors collects per-document failures when the engine runs with
	// KeepGoing; empty on a fully successful build.
	Errors []error
}

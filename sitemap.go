package staticpress

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SitemapFileName is the sitemap's well-known root-relative output path.
const SitemapFileName = "sitemap.xml"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapGenerator writes sitemap.xml listing every rendered page with its
// last-modified date. Registered as "jekyll-sitemap".
type SitemapGenerator struct{}

// Name implements Generator.
func (*SitemapGenerator) Name() string { return "jekyll-sitemap" }

// Generate implements Generator. Pages are listed in output-path order so
// identical inputs always produce identical sitemaps.
func (*SitemapGenerator) Generate(site *Site, outputRoot string) error {
	pages := make([]*RenderedPage, 0, len(site.Pages))
	for _, p := range site.Pages {
		// Static assets and non-HTML outputs stay out of the sitemap.
		if strings.HasSuffix(FilePathFor(p.OutputPath), ".html") {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].OutputPath < pages[j].OutputPath
	})

	urls := make([]sitemapURL, 0, len(pages))
	for _, p := range pages {
		u := sitemapURL{Loc: AbsoluteURL(site.Config, p.OutputPath)}
		if !p.LastMod.IsZero() {
			u.LastMod = p.LastMod.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	set := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("staticpress: encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return os.WriteFile(filepath.Join(outputRoot, SitemapFileName), buf.Bytes(), 0o644)
}

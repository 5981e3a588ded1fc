package staticpress

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFolder strips combining marks so "Żółć" slugifies to "zolc" instead
// of being dropped wholesale.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters and
// digits, everything else collapsed to single hyphens. Deterministic by
// construction so permalink resolution is reproducible.
func Slugify(s string) string {
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// AbsoluteURL resolves a root-relative output path against the site URL and
// baseurl, e.g. "/hello-world/" -> "https://example.org/blog/hello-world/".
func AbsoluteURL(cfg SiteConfig, outputPath string) string {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return outputPath
	}
	joined := path.Join(u.Path, cfg.BaseURL, outputPath)
	if strings.HasSuffix(outputPath, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	u.Path = joined
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

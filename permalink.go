package staticpress

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

var permalinkTokenRe = regexp.MustCompile(`:([a-z_]+)`)

// ResolvePermalink substitutes the tokens of a permalink pattern with the
// document's metadata, producing a root-relative output path such as
// "/hello-world/" or "/2020/01/hello-world/".
//
// Supported tokens: :title (slugified), :year, :month, :day. A token whose
// value is missing — :year on an undated page, :title on an untitled one —
// yields a *PermalinkError, as does a token this resolver does not know.
func ResolvePermalink(pattern string, doc *Document) (string, error) {
	var tokenErr error
	out := permalinkTokenRe.ReplaceAllStringFunc(pattern, func(m string) string {
		token := strings.TrimPrefix(m, ":")
		val, err := tokenValue(token, doc)
		if err != nil && tokenErr == nil {
			tokenErr = err
		}
		return val
	})
	if tokenErr != nil {
		var pe *PermalinkError
		if errors.As(tokenErr, &pe) {
			pe.Pattern = pattern
		}
		return "", tokenErr
	}

	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	cleaned := path.Clean(out)
	if strings.HasSuffix(out, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned, nil
}

func tokenValue(token string, doc *Document) (string, error) {
	fail := func() (string, error) {
		return "", &PermalinkError{Path: doc.SourcePath, Token: ":" + token}
	}
	switch token {
	case "title":
		slug := Slugify(doc.Title)
		if slug == "" {
			return fail()
		}
		return slug, nil
	case "year":
		if !doc.HasDate() {
			return fail()
		}
		return doc.Date.Format("2006"), nil
	case "month":
		if !doc.HasDate() {
			return fail()
		}
		return doc.Date.Format("01"), nil
	case "day":
		if !doc.HasDate() {
			return fail()
		}
		return doc.Date.Format("02"), nil
	default:
		return fail()
	}
}

// OutputPathFor computes a document's output path. Posts follow the site
// permalink pattern; pages mirror their source location as a directory URL
// ("about.md" -> "/about/", "index.md" -> "/"). A front-matter "permalink"
// key overrides either. Static assets keep their source path verbatim.
func OutputPathFor(cfg SiteConfig, doc *Document) (string, error) {
	if doc.Static {
		return "/" + doc.SourcePath, nil
	}
	if v, ok := doc.Meta["permalink"].(string); ok && v != "" {
		return ResolvePermalink(v, doc)
	}
	if doc.IsPost {
		return ResolvePermalink(cfg.Permalink, doc)
	}
	return pagePath(doc.SourcePath), nil
}

// pagePath maps a page source path to a pretty directory URL.
func pagePath(rel string) string {
	dir, base := path.Split(rel)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "index" {
		if dir == "" {
			return "/"
		}
		return "/" + dir
	}
	return "/" + dir + name + "/"
}

// FilePathFor maps an output URL path to the file written under the output
// root: directory URLs get an index.html, anything with an extension is
// written as-is.
func FilePathFor(outputPath string) string {
	p := strings.TrimPrefix(outputPath, "/")
	if p == "" || strings.HasSuffix(outputPath, "/") {
		return path.Join(p, "index.html")
	}
	if path.Ext(p) == "" {
		return path.Join(p, "index.html")
	}
	return p
}

// String satisfies fmt.Stringer for debug logging of documents.
func (d *Document) String() string {
	return fmt.Sprintf("%s -> %s", d.SourcePath, d.OutputPath)
}

package staticpress

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/staticpress/frontmatter"
)

// postNameRe matches the Jekyll post filename convention
// YYYY-MM-DD-title.ext.
var postNameRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

var titleCaser = cases.Title(language.English)

// LoadDocument reads the content file at rel (relative to root) and parses
// it into a Document. Files without an opening front-matter delimiter are
// static assets: metadata empty, body equal to the raw bytes. Malformed
// front matter returns a *FrontMatterError and no partial Document.
func LoadDocument(root, rel string, loc *time.Location) (*Document, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &ScanIOError{Path: rel, Err: err}
	}

	header, body, found, err := frontmatter.Split(raw)
	if err != nil {
		return nil, &FrontMatterError{Path: rel, Err: err}
	}

	doc := &Document{
		SourcePath:  rel,
		Body:        body,
		IsPost:      isPostPath(rel),
		ContentHash: HashBytes(raw),
	}
	if !found {
		doc.Static = true
		doc.Meta = map[string]any{}
		doc.Body = raw
		return doc, nil
	}

	meta, err := frontmatter.Parse(header)
	if err != nil {
		return nil, &FrontMatterError{Path: rel, Err: err}
	}
	doc.Meta = meta

	if v, ok := meta["layout"].(string); ok {
		doc.Layout = v
	}
	if v, ok := meta["title"].(string); ok {
		doc.Title = v
	}
	doc.Tags = metaTags(meta)

	if v, ok := meta["date"]; ok {
		t, err := parseDate(v, loc)
		if err != nil {
			return nil, &FrontMatterError{Path: rel, Err: err}
		}
		doc.Date = t
	}

	// Fall back to the filename for posts: 2020-01-01-hello-world.md
	// carries both a date and a title.
	fileDate, fileTitle := splitPostName(rel)
	if doc.Date.IsZero() && !fileDate.IsZero() {
		doc.Date = time.Date(fileDate.Year(), fileDate.Month(), fileDate.Day(), 0, 0, 0, 0, loc)
	}
	if doc.Title == "" {
		if fileTitle != "" {
			doc.Title = titleCaser.String(strings.ReplaceAll(fileTitle, "-", " "))
		} else {
			doc.Title = baseName(rel)
		}
	}
	return doc, nil
}

// parseDate accepts the scalar shapes yaml.v3 produces for a date key:
// a resolved time.Time, or a string in ISO-8601 date / datetime form.
// Values without an explicit offset are interpreted in the site timezone.
func parseDate(v any, loc *time.Location) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		// yaml resolves naive timestamps as UTC; reinterpret the wall
		// clock in the site timezone.
		return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, loc), nil
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05 -0700", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, d, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unrecognized date value %v", v)
	}
}

func metaTags(meta map[string]any) []string {
	switch tags := meta["tags"].(type) {
	case []any:
		var out []string
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return FilterEmpty(out)
	case string:
		return FilterEmpty(strings.Split(tags, ","))
	default:
		return nil
	}
}

func isPostPath(rel string) bool {
	return rel == postsDir || strings.HasPrefix(rel, postsDir+"/") ||
		strings.Contains(rel, "/"+postsDir+"/")
}

// splitPostName extracts the date and title slug from a post filename.
// Returns zero values when the name does not follow the convention.
func splitPostName(rel string) (time.Time, string) {
	m := postNameRe.FindStringSubmatch(baseName(rel))
	if m == nil {
		return time.Time{}, ""
	}
	t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, ""
	}
	return t, m[4]
}

func baseName(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

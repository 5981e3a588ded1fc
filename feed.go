package staticpress

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FeedFileName is the feed's well-known root-relative output path.
const FeedFileName = "feed.xml"

// feedLimit caps the number of items, matching the common reader
// expectation of a recent-entries feed rather than a full archive.
const feedLimit = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// FeedGenerator writes feed.xml: an RSS 2.0 feed of the site's posts,
// publish date descending with ties broken by source path. Registered as
// "jekyll-feed".
type FeedGenerator struct{}

// Name implements Generator.
func (*FeedGenerator) Name() string { return "jekyll-feed" }

// Generate implements Generator.
func (*FeedGenerator) Generate(site *Site, outputRoot string) error {
	posts := SortPostsForFeed(site.Documents)
	if len(posts) > feedLimit {
		posts = posts[:feedLimit]
	}

	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := AbsoluteURL(site.Config, p.OutputPath)
		pubDate := ""
		if p.HasDate() {
			pubDate = p.Date.Format(time.RFC1123Z)
		}
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: metaString(p.Meta, "description"),
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Config.Name,
			Link:        AbsoluteURL(site.Config, "/"),
			Description: site.Config.Description,
			Items:       items,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return fmt.Errorf("staticpress: encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return os.WriteFile(filepath.Join(outputRoot, FeedFileName), buf.Bytes(), 0o644)
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

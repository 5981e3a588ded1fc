// Package markdown converts Markdown bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Converter turns Markdown source into HTML. It is safe for concurrent use;
// goldmark instances are stateless after construction.
type Converter struct {
	md goldmark.Markdown
}

// New builds a Converter for the given flavor. "gfm" (the default site
// setting) enables tables, strikethrough, autolinks and task lists;
// anything else is plain CommonMark.
func New(flavor string) *Converter {
	opts := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	}
	if flavor == "" || flavor == "gfm" {
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	}
	return &Converter{md: goldmark.New(opts...)}
}

// Convert renders src to HTML.
func (c *Converter) Convert(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

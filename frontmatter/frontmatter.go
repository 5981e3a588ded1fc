// Package frontmatter splits `---` delimited YAML headers from document
// bodies and decodes them into metadata maps.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClose indicates a document opened a front-matter block without a
// matching closing delimiter.
var ErrMissingClose = errors.New("front matter opened without closing delimiter")

const marker = "---"

// Split separates the YAML header from the body.
//
// A document has front matter only when its very first line is the marker
// token and nothing else. If there is no opening marker, found is false and
// body is the whole input untouched, so static assets pass through
// byte-for-byte. An opening marker without a closing one is an error.
func Split(content []byte) (header, body []byte, found bool, err error) {
	first, rest, ok := cutLine(content)
	if !ok || string(trimCR(first)) != marker {
		return nil, content, false, nil
	}

	headerStart := rest
	for len(rest) > 0 {
		offset := len(headerStart) - len(rest)
		var line []byte
		line, rest, _ = cutLine(rest)
		if string(trimCR(line)) == marker {
			return headerStart[:offset], rest, true, nil
		}
	}
	return nil, nil, false, ErrMissingClose
}

// Parse decodes raw YAML header bytes (marker lines already stripped) into a
// metadata map. A nil or empty header decodes to an empty map.
func Parse(header []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(header)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// cutLine splits content at the first newline. ok is false when the input is
// empty; a final line without a trailing newline is still returned.
func cutLine(content []byte) (line, rest []byte, ok bool) {
	if len(content) == 0 {
		return nil, nil, false
	}
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		return content[:i], content[i+1:], true
	}
	return content, nil, true
}

func trimCR(line []byte) []byte {
	return bytes.TrimSuffix(line, []byte("\r"))
}

package staticpress

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DetectCollisions verifies that every document's output path is unique.
// On the first collision (in lexical source order, for determinism) it
// returns an *OutputCollisionError naming both offending sources before
// anything is written.
func DetectCollisions(docs []*Document) error {
	sorted := make([]*Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SourcePath < sorted[j].SourcePath
	})

	owner := make(map[string]*Document, len(sorted))
	for _, doc := range sorted {
		if first, taken := owner[doc.OutputPath]; taken {
			return &OutputCollisionError{
				Output:       doc.OutputPath,
				FirstSource:  first.SourcePath,
				SecondSource: doc.SourcePath,
			}
		}
		owner[doc.OutputPath] = doc
	}
	return nil
}

// WritePage writes one rendered page beneath the output root, creating
// parent directories as needed. Directory-style output paths become
// index.html files.
func WritePage(outputRoot string, page *RenderedPage) error {
	target := filepath.Join(outputRoot, filepath.FromSlash(FilePathFor(page.OutputPath)))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("staticpress: write %s: %w", page.OutputPath, err)
	}
	if err := os.WriteFile(target, page.HTML, 0o644); err != nil {
		return fmt.Errorf("staticpress: write %s: %w", page.OutputPath, err)
	}
	return nil
}

// SortPostsForFeed orders posts by publish date descending, most recent
// first, breaking ties by source path ascending so feed output is
// deterministic.
func SortPostsForFeed(docs []*Document) []*Document {
	var posts []*Document
	for _, d := range docs {
		if d.IsPost && !d.Static {
			posts = append(posts, d)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].SourcePath < posts[j].SourcePath
	})
	return posts
}

package staticpress

import (
	"os"
	"path/filepath"
	"strings"
)

// postsDir is the one underscore-prefixed directory the scanner descends
// into; its files become posts.
const postsDir = "_posts"

// Excluded reports whether the root-relative path rel (slash-separated) is
// removed by the configuration's exclusion list. An entry excludes on exact
// match, as a directory prefix, or as a filepath.Match glob.
func Excluded(cfg SiteConfig, rel string) bool {
	for _, entry := range cfg.Exclude {
		entry = strings.TrimSuffix(strings.TrimSpace(entry), "/")
		if entry == "" {
			continue
		}
		if rel == entry || strings.HasPrefix(rel, entry+"/") {
			return true
		}
		if ok, err := filepath.Match(entry, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ScanFunc walks the site source root once, calling fn for every candidate
// content file in lexical order. Underscore-prefixed directories (except
// _posts) and dotfiles are skipped, as is everything on the exclusion list —
// excluded files never reach fn, so they never become Documents.
//
// Directory symlinks are followed; a symlink resolving into an already
// visited directory aborts the walk with a *ScanCycleError. Unreadable
// directories abort with a *ScanIOError.
func ScanFunc(root string, cfg SiteConfig, fn func(rel string) error) error {
	seen := make(map[string]struct{})
	return scanDir(root, ".", cfg, seen, fn)
}

// Scan collects the candidate paths of one ScanFunc pass into a slice.
func Scan(root string, cfg SiteConfig) ([]string, error) {
	var paths []string
	err := ScanFunc(root, cfg, func(rel string) error {
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func scanDir(root, rel string, cfg SiteConfig, seen map[string]struct{}, fn func(rel string) error) error {
	dir := filepath.Join(root, filepath.FromSlash(rel))

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return &ScanIOError{Path: dir, Err: err}
	}
	if _, visited := seen[resolved]; visited {
		return &ScanCycleError{Path: dir, Target: resolved}
	}
	seen[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &ScanIOError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		name := entry.Name()
		childRel := name
		if rel != "." {
			childRel = rel + "/" + name
		}
		if skipName(name) || Excluded(cfg, childRel) {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil {
				return &ScanIOError{Path: filepath.Join(dir, name), Err: err}
			}
			isDir = info.IsDir()
		}

		if isDir {
			if err := scanDir(root, childRel, cfg, seen, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(childRel); err != nil {
			return err
		}
	}
	return nil
}

// skipName filters dotfiles and underscore-prefixed names. _posts is the
// sanctioned exception; _config.yml and _layouts are inputs, not content.
func skipName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasPrefix(name, "_") && name != postsDir {
		return true
	}
	return false
}

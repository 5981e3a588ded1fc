package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/eringen/staticpress/scaffold"
)

// scaffoldData holds the variables available to .tmpl scaffold files.
type scaffoldData struct {
	SiteName string
	Date     string // today, ISO-8601
}

// runNew creates a site skeleton in dir from the embedded scaffold. Files
// with a .tmpl suffix are rendered as Go text templates; everything else is
// copied verbatim so layout files can contain template syntax of their own.
func runNew(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	data := scaffoldData{
		SiteName: toTitle(filepath.Base(dir)),
		Date:     time.Now().Format("2006-01-02"),
	}

	fmt.Printf("Creating new site: %s\n\n", dir)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(dir, relPath)

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if strings.HasSuffix(outPath, ".tmpl") {
			outPath = strings.TrimSuffix(outPath, ".tmpl")
			tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("parse template %s: %w", path, err)
			}
			var buf strings.Builder
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("execute template %s: %w", path, err)
			}
			content = []byte(buf.String())
		}

		// The sample post picks up today's date in its filename so it
		// sorts to the top of a fresh site's feed.
		if filepath.Base(outPath) == "welcome.md" {
			outPath = filepath.Join(filepath.Dir(outPath), data.Date+"-welcome.md")
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		fmt.Printf("  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  staticpress serve")
	fmt.Println()
	fmt.Println("Edit _config.yml to set your site name and URL.")
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string,
// e.g. "my-blog" -> "My Blog".
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

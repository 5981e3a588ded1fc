package staticpress

import "fmt"

// ConfigParseError indicates the site configuration file is not valid YAML.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("staticpress: parse config %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// ConfigValidationError indicates the configuration parsed but is incomplete,
// e.g. a missing site name.
type ConfigValidationError struct {
	Path  string
	Field string
	Msg   string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("staticpress: invalid config %s: %s: %s", e.Path, e.Field, e.Msg)
}

// ScanIOError indicates the content root (or a file under it) could not be read.
type ScanIOError struct {
	Path string
	Err  error
}

func (e *ScanIOError) Error() string {
	return fmt.Sprintf("staticpress: scan %s: %v", e.Path, e.Err)
}

func (e *ScanIOError) Unwrap() error { return e.Err }

// ScanCycleError indicates a symlink cycle was detected while walking the
// content root. Path is the symlink that closed the cycle; Target is the
// directory it resolves back into.
type ScanCycleError struct {
	Path   string
	Target string
}

func (e *ScanCycleError) Error() string {
	return fmt.Sprintf("staticpress: symlink cycle at %s (resolves to already-visited %s)", e.Path, e.Target)
}

// FrontMatterError indicates a document's front matter block is malformed:
// either the closing delimiter is missing or the header is not valid YAML.
type FrontMatterError struct {
	Path string
	Err  error
}

func (e *FrontMatterError) Error() string {
	return fmt.Sprintf("staticpress: front matter in %s: %v", e.Path, e.Err)
}

func (e *FrontMatterError) Unwrap() error { return e.Err }

// TemplateNotFoundError indicates a document requested a layout that does not
// exist in the layouts directory.
type TemplateNotFoundError struct {
	Layout string
	Path   string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("staticpress: %s: layout %q not found", e.Path, e.Layout)
}

// PermalinkError indicates the permalink pattern referenced a token that has
// no value for the document, e.g. :year on an undated page.
type PermalinkError struct {
	Path    string
	Pattern string
	Token   string
}

func (e *PermalinkError) Error() string {
	return fmt.Sprintf("staticpress: %s: permalink %q: no value for token %q", e.Path, e.Pattern, e.Token)
}

// OutputCollisionError indicates two documents resolved to the same output
// path. Both offending sources are named; neither is written.
type OutputCollisionError struct {
	Output       string
	FirstSource  string
	SecondSource string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("staticpress: output collision at %s: %s and %s", e.Output, e.FirstSource, e.SecondSource)
}

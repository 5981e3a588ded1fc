// Package scaffold provides the embedded site skeleton for the staticpress
// `new` command.
package scaffold

import "embed"

// Templates contains the scaffold files. Files with a .tmpl suffix use Go
// text/template syntax; all others are copied verbatim.
//
//go:embed all:templates
var Templates embed.FS

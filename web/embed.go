// Package web embeds the HTML templates and the static assets served under /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// TemplateFS holds templates/layouts and templates/pages, as view.New expects.
var TemplateFS fs.FS = templateFS

// StaticFS returns the asset tree rooted at the static directory, so that
// /static/css/style.css maps to css/style.css.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

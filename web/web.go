// Package web bundles the HTML templates and static assets of the site.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"postboard/helpers"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Templates parses every page template with the link helpers available.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(helpers.FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// Assets is the static file tree served under /assets.
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

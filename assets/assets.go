// Package assets embeds the html templates and the static files served by signin.
package assets

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates
	embedded embed.FS

	//go:embed dist/*
	dist embed.FS
)

var (
	// TemplateFS contains base.html, the page templates and the partials directory.
	TemplateFS = mustSub(embedded, "templates")
	// DistFS contains the files served under /static/.
	DistFS = mustSub(dist, "dist")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("assets: " + dir + ": " + err.Error())
	}
	return sub
}

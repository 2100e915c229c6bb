// Package view renders the html pages of signin.
//
// A view is made of base.html, the page template {name}.html and every
// template in partials/. Pages define the "content" template that base.html
// includes.
package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"regexp"
)

const (
	baseName    = "base"
	partialGlob = "partials/*.html"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// View is a parsed page template.
type View struct {
	name     string
	template *template.Template
}

// Parse parses the view with the given name from viewFS. An empty name, or
// "base", results in a view of only the base and partial templates.
func Parse(viewFS fs.FS, name string) (*View, error) {
	// Names are not user input, but they end up in a file path.
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("invalid view name %q", name)
	}

	files := []string{baseName + ".html"}
	if name != "" && name != baseName {
		files = append(files, name+".html")
	}

	partials, err := fs.Glob(viewFS, partialGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to glob for partials: %w", err)
	}
	files = append(files, partials...)

	t, err := template.New(baseName + ".html").ParseFS(viewFS, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse view %q: %w", name, err)
	}

	return &View{
		name:     name,
		template: t,
	}, nil
}

// Render executes the view with data and writes the result to w.
func (v *View) Render(w io.Writer, data any) error {
	err := v.template.Execute(w, data)
	if err != nil {
		return fmt.Errorf("failed to render view %q: %w", v.name, err)
	}
	return nil
}

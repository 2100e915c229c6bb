package view

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// MemRenderer renders views that were all parsed up front.
type MemRenderer struct {
	views map[string]*View
}

// NewMemRenderer parses every page in viewFS. It fails if any of them can't be parsed.
func NewMemRenderer(viewFS fs.FS) (*MemRenderer, error) {
	pages, err := fs.Glob(viewFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob for views: %w", err)
	}

	r := &MemRenderer{
		views: make(map[string]*View, len(pages)),
	}

	for _, page := range pages {
		name := strings.TrimSuffix(page, ".html")
		if name == baseName {
			continue
		}

		r.views[name], err = Parse(viewFS, name)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *MemRenderer) Render(w io.Writer, name string, data any) error {
	v, ok := r.views[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}

	return v.Render(w, data)
}

// FSRenderer parses a view every time it's rendered, so changes to the
// templates show up without a restart.
type FSRenderer struct {
	fs fs.FS
}

func NewFSRenderer(viewFS fs.FS) *FSRenderer {
	return &FSRenderer{fs: viewFS}
}

func (r *FSRenderer) Render(w io.Writer, name string, data any) error {
	v, err := Parse(r.fs, name)
	if err != nil {
		return err
	}

	return v.Render(w, data)
}

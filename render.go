package arus

import (
	"html/template"
	"io"
)

// Renderer renders a named template with data into w.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(w io.Writer, name string, data any) error

// Render calls f(w, name, data).
func (f RendererFunc) Render(w io.Writer, name string, data any) error {
	return f(w, name, data)
}

// TemplateRenderer renders html/template templates loaded from a glob.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every file matching pattern, e.g.
// "views/*.html". Templates are looked up by file name.
func NewTemplateRenderer(pattern string, funcs ...template.FuncMap) (*TemplateRenderer, error) {
	t := template.New("")
	for _, f := range funcs {
		t = t.Funcs(f)
	}
	t, err := t.ParseGlob(pattern)
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{templates: t}, nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

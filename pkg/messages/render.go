// Copyright 2024-2026 Aiku AI

package messages

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

const templateSuffix = ".md.tmpl"

// Renderer turns a Message into markdown.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("messages").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*"+templateSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render returns the markdown for msg.
func (r *Renderer) Render(msg Message) (string, error) {
	if !msg.IsTemplate() {
		return msg.Markdown, nil
	}
	tmpl := r.templates.Lookup(msg.Template + templateSuffix)
	if tmpl == nil {
		return "", fmt.Errorf("unknown message template %q", msg.Template)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg.Data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", msg.Template, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Has reports whether a template with the given name exists.
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name+templateSuffix) != nil
}

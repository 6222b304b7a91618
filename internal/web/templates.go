package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// newTemplates parses the embedded page templates with the tag helpers
// installed.
func newTemplates(tags *Tags) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(tags.FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

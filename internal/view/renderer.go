package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/school_management/internal/domain"
)

//go:embed templates/*
var templatesFS embed.FS

// page templates, each parsed together with the layout
var pageTemplates = []string{
	"list.html",
	"show.html",
	"form.html",
	"hired.html",
	"notfound.html",
	"error.html",
}

// Renderer implements echo.Renderer. Templates are addressed by page name
// without the extension, e.g. "list".
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pageTemplates))}
	funcMap := templateFuncMap()

	for _, page := range pageTemplates {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[strings.TrimSuffix(page, ".html")] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(d *domain.Date) string {
			if d == nil {
				return ""
			}
			return d.String()
		},
		"formatSalary": func(f *float64) string {
			if f == nil {
				return ""
			}
			return strconv.FormatFloat(*f, 'f', 2, 64)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}

// ABOUTME: Template loading and rendering for the dashboard UI.
// ABOUTME: Embeds HTML templates and provides render helpers.

package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
)

//go:embed templates/*
var templateFS embed.FS

var (
	layoutTmpl *template.Template
	pageTmpls  map[string]*template.Template
)

var funcs = template.FuncMap{
	"barStyle":    barStyle,
	"statusClass": statusClass,
	"percent":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
	"score":       func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"title":       title,
	"add":         func(a, b int) int { return a + b },
}

// pageDefinitions maps page names to their template files
func pageDefinitions() map[string]string {
	return map[string]string{
		"dashboard": "templates/dashboard.html",
		"logs":      "templates/logs.html",
		"error":     "templates/error.html",
	}
}

// parsePageTemplates creates a map of page templates, each with its own copy of the layout
func parsePageTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	for name, path := range pageDefinitions() {
		tmpl := template.Must(layoutTmpl.Clone())
		templates[name] = template.Must(tmpl.ParseFS(templateFS, path))
	}
	return templates
}

func init() {
	layoutTmpl = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html"))
	pageTmpls = parsePageTemplates()
}

func renderPage(w io.Writer, page string, data any) error {
	tmpl, ok := pageTmpls[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// barStyle sizes and colours a chart bar. Colours come from the report
// package constants, never from user input.
func barStyle(width float64, color string) template.CSS {
	return template.CSS(fmt.Sprintf("width: %.1f%%; background-color: %s", width, color))
}

// statusClass colour-codes an HTTP status: green for success, yellow for
// client errors, red for server errors.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "bg-red-100 text-red-800"
	case code >= 400:
		return "bg-yellow-100 text-yellow-800"
	default:
		return "bg-green-100 text-green-800"
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

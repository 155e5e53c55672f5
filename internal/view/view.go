// Package view renders the server-side HTML templates.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
}

var shortMonths = [...]string{"jan", "feb", "mar", "apr", "maj", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

var longMonths = [...]string{
	"januara", "februara", "marta", "aprila", "maja", "juna",
	"jula", "augusta", "septembra", "oktobra", "novembra", "decembra",
}

// ShortDate formats t as "2. maj".
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d. %s", t.Day(), shortMonths[t.Month()-1])
}

// LongDate formats t as "2. maja 2024.".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d. %s %d.", t.Day(), longMonths[t.Month()-1], t.Year())
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}

// dict builds a map from alternating keys and values, for passing several
// values to a nested template.
func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"shortDate": ShortDate,
	"longDate":  LongDate,
	"truncate":  Truncate,
	"add":       func(a, b int) int { return a + b },
	"sub":       func(a, b int) int { return a - b },
	"dict":      dict,
	"pages": func(total int) []int {
		p := make([]int, total)
		for i := range p {
			p[i] = i + 1
		}
		return p
	},
}

// New creates a new View by parsing all templates from the given filesystem.
func New(templateFS fs.FS) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
	}

	layouts, err := fs.Glob(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	// Each page is parsed together with all layouts and is named after its file.
	for _, page := range pages {
		files := append(append([]string(nil), layouts...), page)
		name := filepath.Base(page)
		ts, err := template.New(name).Funcs(Funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
	}

	return v, nil
}

// Render executes a specific template by name.
func (v *View) Render(w io.Writer, r *http.Request, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["Theme"] = Theme(r.Context())
	data["CurrentPath"] = r.URL.Path
	data["Year"] = time.Now().Year()

	// Execute the template into a buffer first to catch any errors
	// before writing to the response writer.
	buf := new(bytes.Buffer)
	if err := ts.Execute(buf, data); err != nil {
		return err
	}

	if rw, ok := w.(http.ResponseWriter); ok && rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, err := buf.WriteTo(w)
	return err
}

// Package web embeds the browser UI: HTML templates rendered by the gin
// handlers and the static scripts that drive the WebSocket streams.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/stemsi/quizling/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"difficultyLabel": func(d model.Difficulty) string {
		if !d.Valid() {
			return "All"
		}
		return strings.ToUpper(string(d[:1])) + string(d[1:])
	},
	"questionURL": func(id string) string {
		return "/questions/" + url.PathEscape(id)
	},
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// Static serves the embedded scripts and styles.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const previewWords = 40

// PageData contains common fields used across all page templates.
type PageData struct {
	Title       string
	ShowHistory bool
}

type ResultPageData struct {
	PageData
	Result *models.Result
	// Markdown renders the summary through goldmark instead of as plain text.
	Markdown bool
}

type HistoryPageData struct {
	PageData
	Records []*models.SummaryRecord
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded page templates.
func NewRenderer() *Renderer {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return newRenderer(templateSub)
}

func newRenderer(templateFS fs.FS) *Renderer {
	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"sentences":  utils.FormatText,
		"markdown":   renderMarkdown,
		"preview":    func(s string) string { return summary.Truncate(s, previewWords) },
		"watchURL":   watchURL,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"index":   "index.html",
		"result":  "result.html",
		"history": "history.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{templates: templates}
}

// renderPage buffers the page so a template failure can still become a 500.
func (r *Renderer) renderPage(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// renderMarkdown converts markdown text to HTML using goldmark. Raw HTML in
// the input is dropped.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

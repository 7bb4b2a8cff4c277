package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jonathan/resume-assistant/internal/orchestrator"
	"github.com/jonathan/resume-assistant/internal/panels"
	"github.com/jonathan/resume-assistant/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// refreshSeconds is how often a loading page reloads if the event stream is
// unavailable.
const refreshSeconds = 5

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"join":    strings.Join,
		"percent": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (p *pageRenderer) render(w http.ResponseWriter, data pageData) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

type toggleView struct {
	Name    string
	Label   string
	Checked bool
}

type pageData struct {
	Loading        bool
	Error          string
	Form           types.RunRequest
	Toggles        []toggleView
	Panels         panels.Set
	RawJSON        string
	BackendURL     string
	SubmissionID   string
	RefreshSeconds int
}

func buildPage(snap orchestrator.Snapshot, backendURL string) pageData {
	data := pageData{
		Loading:        snap.Loading,
		Error:          snap.Error,
		Form:           snap.Form,
		Panels:         panels.Build(snap.Result, snap.Loading, snap.Form),
		BackendURL:     backendURL,
		SubmissionID:   snap.SubmissionID,
		RefreshSeconds: refreshSeconds,
	}

	materialized := snap.Form.Materialize()
	for _, t := range toggleFields {
		data.Toggles = append(data.Toggles, toggleView{
			Name:    t.name,
			Label:   t.label,
			Checked: **t.field(&materialized),
		})
	}

	if snap.Result != nil && !snap.Loading {
		if raw, err := json.MarshalIndent(snap.Result, "", "  "); err == nil {
			data.RawJSON = string(raw)
		}
	}
	return data
}

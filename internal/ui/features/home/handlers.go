// Package home serves the dashboard page shell.
package home

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opuslabs/sqlite-opus/internal/config"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

type pageData struct {
	Title    string
	BasePath string
	PageSize int
}

// Handlers serves the dashboard page.
type Handlers struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{cfg: cfg, logger: logger}
}

// Index renders the dashboard page.
func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Title:    "SQLite Opus",
		BasePath: h.cfg.BasePath,
		PageSize: h.cfg.PageSize,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "index.gohtml", data); err != nil {
		h.logger.Error("failed to render index", "error", err)
	}
}

// SetupRoutes registers the page route.
func SetupRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger) error {
	h := NewHandlers(cfg, logger)
	r.Get("/", h.Index)
	return nil
}

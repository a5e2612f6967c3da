package tables

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/opuslabs/sqlite-opus/internal/db"
)

// SetupRoutes registers the table browsing endpoints.
func SetupRoutes(r chi.Router, manager *db.Manager, logger *slog.Logger) error {
	h := NewHandlers(manager, logger)

	r.Get("/api/tables", h.List)
	r.Route("/api/table/{name}", func(r chi.Router) {
		r.Get("/", h.Info)
		r.Get("/schema", h.Schema)
		r.Get("/columns", h.Columns)
		r.Get("/indexes", h.Indexes)
	})

	return nil
}

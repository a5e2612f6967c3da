package query

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/opuslabs/sqlite-opus/internal/config"
	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
)

// SetupRoutes registers the query endpoints.
func SetupRoutes(r chi.Router, manager *db.Manager, cfg *config.Config, notify *notifier.Notifier, logger *slog.Logger) error {
	h := NewHandlers(manager, cfg, notify, logger)

	r.Post("/api/query", h.Execute)
	r.Post("/api/query/", h.ExecutePaginated)
	r.Post("/api/query/export", h.Export)

	return nil
}

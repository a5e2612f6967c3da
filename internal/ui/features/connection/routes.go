package connection

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
)

// SetupRoutes registers the connection endpoints.
func SetupRoutes(r chi.Router, manager *db.Manager, notify *notifier.Notifier, logger *slog.Logger) error {
	h := NewHandlers(manager, notify, logger)

	r.Post("/api/connect", h.Connect)
	r.Post("/api/disconnect", h.Disconnect)
	r.Get("/api/status", h.Status)
	r.Get("/api/status/stream", h.StatusStream)

	return nil
}

// Package router wires up HTTP routes for the dashboard server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opuslabs/sqlite-opus/internal/config"
	"github.com/opuslabs/sqlite-opus/internal/db"
	connectionFeature "github.com/opuslabs/sqlite-opus/internal/ui/features/connection"
	homeFeature "github.com/opuslabs/sqlite-opus/internal/ui/features/home"
	queryFeature "github.com/opuslabs/sqlite-opus/internal/ui/features/query"
	tablesFeature "github.com/opuslabs/sqlite-opus/internal/ui/features/tables"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
	"github.com/opuslabs/sqlite-opus/internal/ui/resources"
)

// SetupRoutes mounts the whole dashboard under the configured base path.
func SetupRoutes(
	r chi.Router,
	manager *db.Manager,
	cfg *config.Config,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	var routeErr error

	r.Route(cfg.BasePath, func(r chi.Router) {
		if cfg.AuthEnabled() {
			r.Use(middleware.BasicAuth("sqlite-opus", map[string]string{
				cfg.AuthUser: cfg.AuthPassword,
			}))
		}

		r.Handle("/static/*", http.StripPrefix(cfg.BasePath, resources.Handler()))

		if err := homeFeature.SetupRoutes(r, cfg, logger); err != nil {
			routeErr = err
			return
		}
		if err := connectionFeature.SetupRoutes(r, manager, notify, logger); err != nil {
			routeErr = err
			return
		}
		if err := tablesFeature.SetupRoutes(r, manager, logger); err != nil {
			routeErr = err
			return
		}
		if err := queryFeature.SetupRoutes(r, manager, cfg, notify, logger); err != nil {
			routeErr = err
			return
		}
	})

	// Convenience redirect from the bare root to the dashboard.
	if cfg.BasePath != "/" {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, cfg.BasePath+"/", http.StatusFound)
		})
	}

	return routeErr
}

package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		Long: `Start the SQLite Opus dashboard server.

The server serves the dashboard page and its JSON/fragment API under the
configured base path. With db_path set, the database is connected at
startup; otherwise the dashboard starts disconnected and a database can be
opened from the page.`,
		Example: `  # Start with defaults (http://localhost:8765/sqlite-opus)
  sqlite-opus serve

  # Preconnect a database
  sqlite-opus serve --db-path ./app.db

  # Custom listen address
  sqlite-opus serve --listen-addr :9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	manager := db.NewManager(logger)
	if cfg.DBPath != "" {
		if err := manager.Connect(cfg.DBPath); err != nil {
			// The dashboard still works; the user can connect from the page.
			logger.Warn("could not connect preconfigured database", "path", cfg.DBPath, "error", err)
		} else {
			defer manager.Disconnect()
		}
	}

	server := ui.NewServer(manager, cfg, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Starting dashboard on http://localhost%s%s\n", cfg.ListenAddr, cfg.BasePath)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

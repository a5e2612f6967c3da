// Package ui provides the web dashboard server.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/opuslabs/sqlite-opus/internal/config"
	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
	"github.com/opuslabs/sqlite-opus/internal/ui/router"
)

// Server is the dashboard HTTP server.
type Server struct {
	manager  *db.Manager
	cfg      *config.Config
	logger   *slog.Logger
	notifier *notifier.Notifier
}

// NewServer creates a dashboard server around an existing connection manager.
func NewServer(manager *db.Manager, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		manager:  manager,
		cfg:      cfg,
		logger:   logger,
		notifier: notifier.New(),
	}
}

// Notifier returns the server's change notifier.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Serve starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting dashboard server",
		"addr", s.cfg.ListenAddr, "base_path", s.cfg.BasePath)

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.manager, s.cfg, s.notifier, s.logger); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.watchDatabase(egctx)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dashboard server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchDatabase watches the connected database file for external writes and
// broadcasts a ping so SSE subscribers refresh. The watched directory follows
// the connection: connect/disconnect handlers broadcast, which also lands
// here and re-syncs the watch target.
func (s *Server) watchDatabase(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	pings := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(pings)

	var watchedDir string
	syncWatch := func() {
		dir := ""
		if path := s.manager.Path(); path != "" {
			dir = filepath.Dir(path)
		}
		if dir == watchedDir {
			return
		}
		if watchedDir != "" {
			_ = watcher.Remove(watchedDir)
		}
		watchedDir = dir
		if dir != "" {
			if err := watcher.Add(dir); err != nil {
				s.logger.Error("failed to watch database directory", "dir", dir, "error", err)
				watchedDir = ""
			}
		}
	}
	syncWatch()

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-pings:
			syncWatch()

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := s.manager.Path()
			if path == "" || filepath.Dir(event.Name) != filepath.Dir(path) {
				continue
			}
			base := filepath.Base(path)
			name := filepath.Base(event.Name)
			if name != base && name != base+"-wal" && name != base+"-journal" {
				continue
			}

			// Debounce bursts of writes into one ping.
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("database file changed", "file", event.Name)
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// Package features provides shared test fixtures for the feature packages.
package features

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/testutil"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"

	// sqlite driver for seeding test databases.
	_ "modernc.org/sqlite"
)

// SeedTestDB creates a SQLite file with a small schema and data set for
// handler tests and returns its path.
func SeedTestDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer func() { _ = conn.Close() }()

	stmts := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT DEFAULT 'none'
		);

		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			total REAL
		);

		CREATE INDEX idx_orders_user ON orders(user_id);

		INSERT INTO users (id, name) VALUES (1, 'Ann'), (2, 'Ben'), (3, 'Cho');
		INSERT INTO orders (id, user_id, total) VALUES (1, 1, 9.5), (2, 3, 20);
	`
	if _, err := conn.ExecContext(context.Background(), stmts); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	return path
}

// ConnectedManager returns a Manager connected to a freshly seeded database.
func ConnectedManager(t *testing.T) *db.Manager {
	t.Helper()

	manager := db.NewManager(testutil.NewTestLogger(t))
	if err := manager.Connect(SeedTestDB(t)); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(manager.Disconnect)
	return manager
}

// DisconnectedManager returns a Manager with no database attached.
func DisconnectedManager(t *testing.T) *db.Manager {
	t.Helper()
	return db.NewManager(testutil.NewTestLogger(t))
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opuslabs/sqlite-opus/internal/testutil"
)

// newTestDB creates a SQLite file in a temp directory with a small fixture
// schema and returns its path.
func newTestDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT DEFAULT 'none'
		);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL
		);
		CREATE INDEX idx_orders_user ON orders(user_id);
		CREATE VIEW user_names AS SELECT name FROM users;
		INSERT INTO users (id, name) VALUES (1, 'Ann'), (2, 'Ben'), (3, 'Cho');
	`)
	require.NoError(t, err)
	return path
}

// newTestManager returns a Manager connected to a fixture database.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m := NewManager(testutil.NewTestLogger(t))
	require.NoError(t, m.Connect(newTestDB(t)))
	t.Cleanup(m.Disconnect)
	return m
}

func TestManagerConnect(t *testing.T) {
	t.Run("connects to existing file", func(t *testing.T) {
		path := newTestDB(t)
		m := NewManager(testutil.NewTestLogger(t))

		require.NoError(t, m.Connect(path))
		defer m.Disconnect()

		assert.True(t, m.Connected())
		assert.Equal(t, path, m.Path())
	})

	t.Run("rejects missing file", func(t *testing.T) {
		m := NewManager(testutil.NewTestLogger(t))

		err := m.Connect(filepath.Join(t.TempDir(), "nope.db"))
		assert.ErrorContains(t, err, "database file not found")
		assert.False(t, m.Connected())
	})

	t.Run("replaces previous connection", func(t *testing.T) {
		first := newTestDB(t)
		second := newTestDB(t)
		m := NewManager(testutil.NewTestLogger(t))

		require.NoError(t, m.Connect(first))
		require.NoError(t, m.Connect(second))
		defer m.Disconnect()

		assert.Equal(t, second, m.Path())
	})
}

func TestManagerDisconnect(t *testing.T) {
	m := newTestManager(t)

	m.Disconnect()

	assert.False(t, m.Connected())
	assert.Empty(t, m.Path())

	// Safe to call again.
	m.Disconnect()

	_, err := m.Tables(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

// Package db manages the SQLite connection and query execution for the
// dashboard. A single Manager holds at most one open database at a time;
// all access is serialized through its mutex so request handlers can share it.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotConnected is returned by operations that require an open database.
var ErrNotConnected = errors.New("no database connection")

// Manager owns the dashboard's SQLite connection.
type Manager struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewManager creates a Manager with no open connection.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Connect opens the SQLite database at path, replacing any previous
// connection. The file must already exist; Connect never creates one.
func (m *Manager) Connect(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database file not found: %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		_ = m.db.Close()
	}
	m.db = db
	m.path = path
	m.logger.Info("connected to database", "path", path)
	return nil
}

// Disconnect closes the current connection. Safe to call when disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		_ = m.db.Close()
		m.db = nil
		m.logger.Info("disconnected from database", "path", m.path)
		m.path = ""
	}
}

// Connected reports whether a database is currently open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db != nil
}

// Path returns the path of the connected database, or "" when disconnected.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// conn returns the open handle, or ErrNotConnected.
func (m *Manager) conn() (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil, ErrNotConnected
	}
	return m.db, nil
}

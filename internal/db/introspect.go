package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Column describes one column of a table, as reported by pragma_table_info.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"notnull"`
	Default string `json:"dflt_value"`
	PK      bool   `json:"pk"`
}

// Index describes one index on a table, as reported by pragma_index_list.
type Index struct {
	Name   string `json:"name"`
	Unique bool   `json:"unique"`
	Origin string `json:"origin"`
}

// Tables returns the names of all user tables, sorted by name.
func (m *Manager) Tables(ctx context.Context) ([]string, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableSchema returns the CREATE statement for a table or view.
func (m *Manager) TableSchema(ctx context.Context, table string) (string, error) {
	db, err := m.conn()
	if err != nil {
		return "", err
	}

	var schema sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE tbl_name = ? AND type IN ('table', 'view')`,
		table,
	).Scan(&schema)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("table not found: %s", table)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}
	return schema.String, nil
}

// Columns returns column metadata for a table. The pragma_table_info
// table-valued function takes the name as a bound parameter; older SQLite
// builds fall back to a PRAGMA statement, which only runs for names that are
// plain identifiers.
func (m *Manager) Columns(ctx context.Context, table string) ([]Column, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM pragma_table_info(?)`, table)
	if err != nil {
		name, ok := safeIdentifier(table)
		if !ok {
			return nil, fmt.Errorf("invalid table name: %s", table)
		}
		rows, err = db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns: %w", err)
		}
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:    name,
			Type:    colType,
			NotNull: notNull != 0,
			Default: dflt.String,
			PK:      pk != 0,
		})
	}
	return cols, rows.Err()
}

// Indexes returns index metadata for a table, with the same fallback rule
// as Columns.
func (m *Manager) Indexes(ctx context.Context, table string) ([]Index, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM pragma_index_list(?)`, table)
	if err != nil {
		name, ok := safeIdentifier(table)
		if !ok {
			return nil, fmt.Errorf("invalid table name: %s", table)
		}
		rows, err = db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%q)`, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read indexes: %w", err)
		}
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		indexes = append(indexes, Index{
			Name:   name,
			Unique: unique != 0,
			Origin: origin,
		})
	}
	return indexes, rows.Err()
}

// safeIdentifier reports whether name is usable inside a PRAGMA statement:
// non-empty, alphanumeric and underscore only.
func safeIdentifier(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return "", false
		}
	}
	return name, true
}

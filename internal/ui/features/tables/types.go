// Package tables provides the table browsing and introspection endpoints.
package tables

import "github.com/opuslabs/sqlite-opus/internal/db"

// TableInfoResponse is the combined payload of GET /api/table/{name}.
type TableInfoResponse struct {
	Success bool        `json:"success"`
	Schema  string      `json:"schema"`
	Columns []db.Column `json:"columns"`
	Indexes []db.Index  `json:"indexes"`
	Error   string      `json:"error,omitempty"`
}

// columnsData feeds the columns fragment.
type columnsData struct {
	Table   string
	Columns []db.Column
	Error   string
}

// indexesData feeds the indexes fragment.
type indexesData struct {
	Table   string
	Indexes []db.Index
	Error   string
}

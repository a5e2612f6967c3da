package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Result holds the outcome of one query execution. For SELECT statements
// Columns and Rows are populated; for DML only RowCount is meaningful.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int
	Page     *PageInfo
}

// PageInfo describes the pagination window of a Result.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// IsSelect reports whether query is a SELECT statement
// (case-insensitive prefix check, matching the dashboard's export guard).
func IsSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

// EnsureLimit appends a LIMIT clause to a SELECT that has none, capping the
// number of rows a plain query can return.
func EnsureLimit(query string, max int) string {
	if !IsSelect(query) || max <= 0 {
		return query
	}
	if strings.Contains(strings.ToUpper(query), "LIMIT") {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(strings.TrimSpace(query), ";"), max)
}

// Execute runs query against the connected database. SELECT statements
// return columns and rows; anything else is executed for its side effects
// and reports the affected row count.
func (m *Manager) Execute(ctx context.Context, query string) (*Result, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	if !IsSelect(query) {
		res, err := db.ExecContext(ctx, query)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		return &Result{RowCount: int(affected)}, nil
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// ExecutePaginated runs a SELECT and returns a single page of its results.
// The total is computed by wrapping the query in a COUNT(*); any trailing
// LIMIT/OFFSET the user wrote is stripped first so paging controls the
// window. Non-SELECT statements are delegated to Execute.
func (m *Manager) ExecutePaginated(ctx context.Context, query string, page, perPage, maxResults int) (*Result, error) {
	if !IsSelect(query) {
		return m.Execute(ctx, query)
	}

	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if maxResults > 0 && perPage > maxResults {
		perPage = maxResults
	}

	base := stripLimitOffset(query)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS _cnt", base)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	offset := (page - 1) * perPage
	rows, err := db.QueryContext(ctx, fmt.Sprintf("%s LIMIT %d OFFSET %d", base, perPage, offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	result.Page = &PageInfo{
		Page:       page,
		PerPage:    perPage,
		TotalCount: total,
		TotalPages: totalPages,
	}
	return result, nil
}

// collectRows scans all rows into column-keyed maps, converting []byte
// values to strings for readability.
func collectRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns:  cols,
		Rows:     results,
		RowCount: len(results),
	}, nil
}

// limitOffsetRe matches a trailing LIMIT n or OFFSET n clause.
var limitOffsetRe = regexp.MustCompile(`(?i)\s+(?:OFFSET\s+\d+|LIMIT\s+\d+)\s*$`)

// stripLimitOffset removes trailing LIMIT and OFFSET clauses, in either
// order, from the end of a query.
func stripLimitOffset(query string) string {
	q := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), ";"))
	for range 2 {
		loc := limitOffsetRe.FindStringIndex(q)
		if loc == nil {
			break
		}
		q = strings.TrimRight(q[:loc[0]], " \t\n")
	}
	return q
}

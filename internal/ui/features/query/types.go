// Package query provides the query execution, pagination, and CSV export
// endpoints.
package query

// ExecuteRequest is the body of POST /api/query and /api/query/.
type ExecuteRequest struct {
	Query   string `json:"query"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// ExportRequest is the body of POST /api/query/export. Table, when set,
// names the downloaded file.
type ExportRequest struct {
	Query string `json:"query"`
	Table string `json:"table"`
}

// resultsData feeds the paginated results fragment.
type resultsData struct {
	Error      string
	Columns    []string
	Rows       [][]string
	RowCount   int
	DML        bool
	TotalCount int
	Buttons    []pageButton
}

// pageButton is one pagination control in the results fragment.
type pageButton struct {
	Label    string
	Page     int
	Current  bool
	Disabled bool
}

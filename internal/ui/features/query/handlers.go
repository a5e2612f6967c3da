package query

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/opuslabs/sqlite-opus/internal/config"
	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/features/common"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

// Handlers provides the query endpoints.
type Handlers struct {
	manager  *db.Manager
	cfg      *config.Config
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(manager *db.Manager, cfg *config.Config, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		manager:  manager,
		cfg:      cfg,
		notifier: notify,
		logger:   logger,
	}
}

// Execute runs a query and returns the full result set as JSON. SELECT
// statements without a LIMIT clause are capped at max_query_results.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Connected() {
		common.WriteError(w, http.StatusBadRequest, "Not connected")
		return
	}

	var req ExecuteRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		common.WriteError(w, http.StatusBadRequest, "Query required")
		return
	}

	if !db.IsSelect(q) && !h.cfg.AllowDML {
		common.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "Only SELECT queries are allowed",
			"columns": []string{},
			"results": []map[string]any{},
		})
		return
	}

	res, err := h.manager.Execute(r.Context(), db.EnsureLimit(q, h.cfg.MaxQueryResults))
	if err != nil {
		common.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   err.Error(),
			"columns": []string{},
			"results": []map[string]any{},
		})
		return
	}

	if !db.IsSelect(q) {
		// DML may have changed the table list.
		h.notifier.Broadcast()
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"columns":  emptyColumns(res.Columns),
		"results":  emptyRows(res.Rows),
		"rowcount": res.RowCount,
	})
}

// ExecutePaginated runs a query and renders one page of results as an HTML
// fragment including pagination controls.
func (h *Handlers) ExecutePaginated(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := common.ReadJSON(r, &req); err != nil {
		h.renderResults(w, resultsData{Error: "Invalid request body"})
		return
	}
	q := strings.TrimSpace(req.Query)

	switch {
	case !h.manager.Connected():
		h.renderResults(w, resultsData{Error: "Not connected"})
		return
	case q == "":
		h.renderResults(w, resultsData{Error: "Query cannot be empty"})
		return
	case !db.IsSelect(q) && !h.cfg.AllowDML:
		h.renderResults(w, resultsData{Error: "Only SELECT queries are allowed"})
		return
	}

	if req.PerPage <= 0 {
		req.PerPage = h.cfg.PageSize
	}

	res, err := h.manager.ExecutePaginated(r.Context(), q, req.Page, req.PerPage, h.cfg.MaxQueryResults)
	if err != nil {
		h.renderResults(w, resultsData{Error: err.Error()})
		return
	}

	if res.Page == nil {
		// DML path: report the affected row count.
		h.notifier.Broadcast()
		h.renderResults(w, resultsData{DML: true, RowCount: res.RowCount})
		return
	}

	h.renderResults(w, resultsData{
		Columns:    res.Columns,
		Rows:       stringRows(res.Columns, res.Rows),
		RowCount:   res.RowCount,
		TotalCount: res.Page.TotalCount,
		Buttons:    paginationButtons(res.Page),
	})
}

// Export streams the results of a SELECT query as a CSV download.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Connected() {
		common.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Not connected"})
		return
	}

	var req ExportRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		common.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Query required"})
		return
	}
	if !db.IsSelect(q) {
		common.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Only SELECT queries can be exported"})
		return
	}

	res, err := h.manager.Execute(r.Context(), q)
	if err != nil {
		common.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	filename := exportFilename(req.Table)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write(res.Columns)
	for _, row := range res.Rows {
		record := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			record[i] = csvValue(row[col])
		}
		_ = cw.Write(record)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}

func (h *Handlers) renderResults(w http.ResponseWriter, data resultsData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "results.gohtml", data); err != nil {
		h.logger.Error("failed to render results fragment", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	common.WriteFragment(w, http.StatusOK, buf.Bytes())
}

// paginationButtons builds prev / numbered / next controls around the
// current page, windowed to at most seven numbered buttons.
func paginationButtons(p *db.PageInfo) []pageButton {
	if p.TotalPages <= 1 {
		return nil
	}

	const window = 7
	start := p.Page - window/2
	if start < 1 {
		start = 1
	}
	end := start + window - 1
	if end > p.TotalPages {
		end = p.TotalPages
		if end-window+1 > 0 {
			start = end - window + 1
		} else {
			start = 1
		}
	}

	buttons := []pageButton{{Label: "Prev", Page: p.Page - 1, Disabled: p.Page <= 1}}
	for i := start; i <= end; i++ {
		buttons = append(buttons, pageButton{
			Label:   fmt.Sprintf("%d", i),
			Page:    i,
			Current: i == p.Page,
		})
	}
	buttons = append(buttons, pageButton{Label: "Next", Page: p.Page + 1, Disabled: p.Page >= p.TotalPages})
	return buttons
}

// stringRows flattens map rows into column-ordered string cells.
func stringRows(cols []string, rows []map[string]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = displayValue(row[col])
		}
		out[i] = cells
	}
	return out
}

func displayValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func csvValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// exportFilename names the download after the selected table when known.
func exportFilename(table string) string {
	if name, ok := safeFilename(table); ok {
		return name + ".csv"
	}
	return fmt.Sprintf("export-%s.csv", uuid.NewString()[:8])
}

func safeFilename(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return "", false
		}
	}
	return name, true
}

func emptyColumns(cols []string) []string {
	if cols == nil {
		return []string{}
	}
	return cols
}

func emptyRows(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}

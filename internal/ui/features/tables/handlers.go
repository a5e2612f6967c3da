package tables

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/features/common"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

// Handlers provides the table introspection endpoints.
type Handlers struct {
	manager *db.Manager
	logger  *slog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(manager *db.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{manager: manager, logger: logger}
}

// List returns the names of all tables.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Connected() {
		common.WriteError(w, http.StatusBadRequest, "Not connected")
		return
	}

	tables, err := h.manager.Tables(r.Context())
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tables":  tables,
	})
}

// Info returns schema, columns, and indexes for one table in a single
// payload. The three lookups run concurrently; a failing columns or indexes
// lookup degrades to an empty list rather than failing the response.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Connected() {
		common.WriteError(w, http.StatusBadRequest, "Not connected")
		return
	}
	name := chi.URLParam(r, "name")

	var (
		schema  string
		columns []db.Column
		indexes []db.Index
	)

	g, ctx := errgroup.WithContext(r.Context())
	var schemaErr error
	g.Go(func() error {
		schema, schemaErr = h.manager.TableSchema(ctx, name)
		return nil
	})
	g.Go(func() error {
		cols, err := h.manager.Columns(ctx, name)
		if err != nil {
			h.logger.Warn("columns lookup failed", "table", name, "error", err)
			return nil
		}
		columns = cols
		return nil
	})
	g.Go(func() error {
		idx, err := h.manager.Indexes(ctx, name)
		if err != nil {
			h.logger.Warn("indexes lookup failed", "table", name, "error", err)
			return nil
		}
		indexes = idx
		return nil
	})
	_ = g.Wait()

	if schemaErr != nil {
		common.WriteJSON(w, http.StatusOK, TableInfoResponse{
			Success: false,
			Error:   schemaErr.Error(),
			Columns: []db.Column{},
			Indexes: []db.Index{},
		})
		return
	}

	if columns == nil {
		columns = []db.Column{}
	}
	if indexes == nil {
		indexes = []db.Index{}
	}
	common.WriteJSON(w, http.StatusOK, TableInfoResponse{
		Success: true,
		Schema:  schema,
		Columns: columns,
		Indexes: indexes,
	})
}

// Schema returns the CREATE statement for one table.
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Connected() {
		common.WriteError(w, http.StatusBadRequest, "Not connected")
		return
	}

	name := chi.URLParam(r, "name")
	schema, err := h.manager.TableSchema(r.Context(), name)
	if err != nil {
		common.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"schema":  schema,
	})
}

// Columns renders the columns of one table as an HTML fragment.
func (h *Handlers) Columns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data := columnsData{Table: name}
	if !h.manager.Connected() {
		data.Error = "Not connected"
	} else if cols, err := h.manager.Columns(r.Context(), name); err != nil {
		data.Error = err.Error()
	} else {
		data.Columns = cols
	}

	h.renderFragment(w, "columns.gohtml", data)
}

// Indexes renders the indexes of one table as an HTML fragment.
func (h *Handlers) Indexes(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data := indexesData{Table: name}
	if !h.manager.Connected() {
		data.Error = "Not connected"
	} else if idx, err := h.manager.Indexes(r.Context(), name); err != nil {
		data.Error = err.Error()
	} else {
		data.Indexes = idx
	}

	h.renderFragment(w, "indexes.gohtml", data)
}

func (h *Handlers) renderFragment(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render fragment", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	common.WriteFragment(w, http.StatusOK, buf.Bytes())
}

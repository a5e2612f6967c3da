package connection

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/opuslabs/sqlite-opus/internal/db"
	"github.com/opuslabs/sqlite-opus/internal/ui/features/common"
	"github.com/opuslabs/sqlite-opus/internal/ui/notifier"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

// Handlers provides the connection lifecycle endpoints.
type Handlers struct {
	manager  *db.Manager
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(manager *db.Manager, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		manager:  manager,
		notifier: notify,
		logger:   logger,
	}
}

// Connect opens the database file named in the request body.
func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	path := strings.TrimSpace(req.DBPath)
	if path == "" {
		common.WriteError(w, http.StatusBadRequest, "Database path required")
		return
	}

	if err := h.manager.Connect(path); err != nil {
		h.logger.Warn("connect failed", "path", path, "error", err)
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tables, err := h.manager.Tables(r.Context())
	if err != nil {
		tables = nil
	}
	h.notifier.Broadcast()

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Connected successfully",
		"tables":  emptyIfNil(tables),
	})
}

// Disconnect closes the current database. It always reports success.
func (h *Handlers) Disconnect(w http.ResponseWriter, _ *http.Request) {
	h.manager.Disconnect()
	h.notifier.Broadcast()

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Disconnected",
	})
}

// Status reports the current connection state and table list.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Connected: h.manager.Connected(),
		DBPath:    h.manager.Path(),
		Tables:    []string{},
	}
	if resp.Connected {
		if tables, err := h.manager.Tables(r.Context()); err == nil {
			resp.Tables = emptyIfNil(tables)
		}
	}
	common.WriteJSON(w, http.StatusOK, resp)
}

// StatusStream pushes the status banner fragment over SSE whenever the
// connection state or the database file changes.
func (h *Handlers) StatusStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	pings := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(pings)

	send := func() bool {
		fragment, err := h.renderBanner()
		if err != nil {
			h.logger.Error("failed to render status banner", "error", err)
			return false
		}
		if err := sse.PatchElements(fragment); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-pings:
			if !send() {
				return
			}
		}
	}
}

func (h *Handlers) renderBanner() (string, error) {
	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "status.gohtml", bannerData{
		Connected: h.manager.Connected(),
		DBPath:    h.manager.Path(),
	})
	return buf.String(), err
}

func emptyIfNil(tables []string) []string {
	if tables == nil {
		return []string{}
	}
	return tables
}

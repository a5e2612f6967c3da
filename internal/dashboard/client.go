package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opuslabs/sqlite-opus/internal/db"
)

// statusClearDelay is how long a status message keeps its category styling.
const statusClearDelay = 5 * time.Second

// Config configures a dashboard Client.
type Config struct {
	// BaseURL is the server's dashboard prefix, e.g.
	// "http://localhost:8765/sqlite-opus".
	BaseURL string
	Surface Surface
	Regions Regions

	// PageSize is the per-page row count sent with paginated queries.
	PageSize int

	// StatusClearDelay overrides the banner auto-clear delay. Zero means
	// the default of five seconds.
	StatusClearDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the dashboard's response-handling state machine. Operations
// never propagate failures to the caller; every error surfaces as a status
// message and leaves the rest of the page usable.
type Client struct {
	baseURL    string
	surface    Surface
	regions    Regions
	pageSize   int
	clearDelay time.Duration
	httpc      *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	lastQuery     string
	lastPerPage   int
	selectedTable string
	statusMsg     string
	statusTimer   *time.Timer
}

// NewClient creates a dashboard client bound to a Surface.
func NewClient(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	delay := cfg.StatusClearDelay
	if delay <= 0 {
		delay = statusClearDelay
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		surface:    cfg.Surface,
		regions:    cfg.Regions,
		pageSize:   pageSize,
		clearDelay: delay,
		httpc:      httpc,
		logger:     logger,
	}
}

// Connect reads the database path field and opens the connection. An empty
// path is rejected locally without a request.
func (c *Client) Connect(ctx context.Context) {
	path := strings.TrimSpace(c.surface.ReadValue(FieldDBPath))
	if path == "" {
		c.setStatus("Database path required", statusError)
		return
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.postJSON(ctx, "/api/connect", map[string]string{"db_path": path}, &resp); err != nil {
		c.setStatus("Connection failed: "+err.Error(), statusError)
		return
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to connect to database"
		}
		c.setStatus(msg, statusError)
		return
	}

	c.setStatus("Connected successfully", statusSuccess)
	c.setControlsEnabled(true)
	c.LoadTables(ctx)
}

// Disconnect closes the connection. The UI resets to the disconnected state
// regardless of what the server answers.
func (c *Client) Disconnect(ctx context.Context) {
	if err := c.postJSON(ctx, "/api/disconnect", struct{}{}, nil); err != nil {
		c.logger.Debug("disconnect request failed", "error", err)
	}

	c.mu.Lock()
	c.lastQuery = ""
	c.selectedTable = ""
	c.mu.Unlock()

	c.setControlsEnabled(false)
	c.surface.Render(RegionTables, "")
	c.surface.Render(RegionResults, "")
	if c.regions.Schema {
		c.surface.Render(RegionSchema, "")
	}
	if c.regions.Columns {
		c.surface.Render(RegionColumns, "")
	}
	if c.regions.Indexes {
		c.surface.Render(RegionIndexes, "")
	}
	c.setStatus("Disconnected", statusSuccess)
}

// LoadTables fetches the table list and re-renders the sidebar wholesale.
func (c *Client) LoadTables(ctx context.Context) {
	var resp struct {
		Success bool     `json:"success"`
		Tables  []string `json:"tables"`
	}
	if err := c.getJSON(ctx, "/api/tables", &resp); err != nil {
		c.setStatus("Failed to load tables: "+err.Error(), statusError)
		return
	}
	if !resp.Success || len(resp.Tables) == 0 {
		c.surface.Render(RegionTables, `<li class="empty-state">No tables</li>`)
		return
	}
	c.surface.Render(RegionTables, tableListHTML(resp.Tables))
}

// SelectTable marks a table active, pre-fills the editor, and loads its
// schema, columns, and indexes concurrently. Each sub-result independently
// falls back to an error fragment; responses arriving after the selection
// moved on are dropped.
func (c *Client) SelectTable(ctx context.Context, name string) {
	if name == "" {
		return
	}

	c.mu.Lock()
	c.selectedTable = name
	c.mu.Unlock()

	c.surface.SetValue(FieldQuery, fmt.Sprintf("SELECT * FROM %s;", name))
	if c.surface.ActiveTab() != TabSchema {
		c.surface.SwitchTab(TabSchema)
	}

	var schemaHTML, columnsHTML, indexesHTML string
	g, gctx := errgroup.WithContext(ctx)
	if c.regions.Schema {
		g.Go(func() error {
			schemaHTML = c.fetchSchemaFragment(gctx, name)
			return nil
		})
	}
	if c.regions.Columns {
		g.Go(func() error {
			columnsHTML = c.fetchFragment(gctx, "/api/table/"+name+"/columns", "Failed to load columns")
			return nil
		})
	}
	if c.regions.Indexes {
		g.Go(func() error {
			indexesHTML = c.fetchFragment(gctx, "/api/table/"+name+"/indexes", "Failed to load indexes")
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	stale := c.selectedTable != name
	c.mu.Unlock()
	if stale {
		return
	}

	if c.regions.Schema {
		c.surface.Render(RegionSchema, schemaHTML)
	}
	if c.regions.Columns {
		c.surface.Render(RegionColumns, columnsHTML)
	}
	if c.regions.Indexes {
		c.surface.Render(RegionIndexes, indexesHTML)
	}
}

// ExecuteQuery reads the editor and runs its query from page one. An empty
// query is rejected locally without a request.
func (c *Client) ExecuteQuery(ctx context.Context) {
	query := strings.TrimSpace(c.surface.ReadValue(FieldQuery))
	if query == "" {
		c.setStatus("Query cannot be empty", statusError)
		return
	}
	c.runQuery(ctx, query, 1, c.pageSize)
}

// Paginate re-issues the last executed query with a new page number read
// from a control's data attribute, keeping the per-page size that query ran
// with. Without a prior query, or with a non-numeric attribute, it is a
// no-op.
func (c *Client) Paginate(ctx context.Context, pageAttr string) {
	c.mu.Lock()
	query := c.lastQuery
	perPage := c.lastPerPage
	c.mu.Unlock()
	if query == "" {
		return
	}
	page, err := strconv.Atoi(strings.TrimSpace(pageAttr))
	if err != nil {
		return
	}
	c.runQuery(ctx, query, page, perPage)
}

// ClearQuery empties the editor and results and drops the pagination cursor.
func (c *Client) ClearQuery() {
	c.mu.Lock()
	c.lastQuery = ""
	c.mu.Unlock()
	c.surface.SetValue(FieldQuery, "")
	c.surface.Render(RegionResults, "")
	c.surface.Render(RegionLastQuery, "")
}

// ExportCSV downloads the last executed query's results. Non-SELECT queries
// are rejected locally. The export control is re-enabled in every outcome.
func (c *Client) ExportCSV(ctx context.Context) {
	c.surface.SetEnabled(ControlExport, false)
	defer c.surface.SetEnabled(ControlExport, true)

	c.mu.Lock()
	query := c.lastQuery
	table := c.selectedTable
	c.mu.Unlock()

	if query == "" {
		c.setStatus("Execute a query first", statusError)
		return
	}
	if !db.IsSelect(query) {
		c.setStatus("Only SELECT queries can be exported", statusError)
		return
	}

	body, err := json.Marshal(map[string]string{"query": query, "table": table})
	if err != nil {
		c.setStatus("Export failed: "+err.Error(), statusError)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query/export", bytes.NewReader(body))
	if err != nil {
		c.setStatus("Export failed: "+err.Error(), statusError)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.setStatus("Export failed: "+err.Error(), statusError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		msg := "Export failed"
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			msg = payload.Error
		}
		c.setStatus(msg, statusError)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.setStatus("Export failed: "+err.Error(), statusError)
		return
	}

	filename := "export.csv"
	if table != "" {
		filename = table + ".csv"
	}
	c.surface.Download(filename, data)
	c.setStatus("Export complete", statusSuccess)
}

// LastQuery returns the current pagination cursor's query.
func (c *Client) LastQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery
}

// SelectedTable returns the active table name, if any.
func (c *Client) SelectedTable() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedTable
}

// runQuery posts the query to the paginated endpoint and injects the
// returned fragment, recording the cursor on success.
func (c *Client) runQuery(ctx context.Context, query string, page, perPage int) {
	fragment, err := c.postFragment(ctx, "/api/query/", map[string]any{
		"query":    query,
		"page":     page,
		"per_page": perPage,
	})
	if err != nil {
		c.setStatus("Query failed: "+err.Error(), statusError)
		return
	}

	c.mu.Lock()
	c.lastQuery = query
	c.lastPerPage = perPage
	c.mu.Unlock()

	c.surface.Render(RegionResults, fragment)
	c.surface.Render(RegionLastQuery, escape(query))
}

func (c *Client) setControlsEnabled(enabled bool) {
	for _, control := range []string{ControlQuery, ControlExecute, ControlClear, ControlExport} {
		c.surface.SetEnabled(control, enabled)
	}
}

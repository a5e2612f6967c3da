// Package dashboard implements the dashboard client: the state machine that
// mediates between user actions and the HTTP API, rendering responses into
// named page regions. The client is headless; a Surface implementation
// supplies the actual UI, which keeps the response-handling logic testable
// without a browser.
package dashboard

// Surface is the capability interface the client renders through.
type Surface interface {
	// Render replaces the content of a page region with HTML.
	Render(region, html string)
	// ReadValue returns the current value of an input field.
	ReadValue(field string) string
	// SetValue replaces the value of an input field.
	SetValue(field, value string)
	// SetEnabled toggles an interactive control.
	SetEnabled(control string, enabled bool)
	// ActiveTab returns the name of the currently active tab.
	ActiveTab() string
	// SwitchTab activates the named tab.
	SwitchTab(tab string)
	// Download delivers a file to the user.
	Download(filename string, data []byte)
}

// Page regions the client renders into. Names match the dashboard page's
// element IDs.
const (
	RegionStatus    = "connection-status"
	RegionTables    = "tables-list"
	RegionResults   = "results-container"
	RegionSchema    = "table-schema-container"
	RegionColumns   = "table-columns-container"
	RegionIndexes   = "table-indexes-container"
	RegionLastQuery = "last-executed-query"
)

// Input fields the client reads.
const (
	FieldDBPath = "db-path"
	FieldQuery  = "query-editor"
)

// Controls the client enables and disables.
const (
	ControlQuery   = "query-editor"
	ControlExecute = "execute-btn"
	ControlClear   = "clear-btn"
	ControlExport  = "export-csv-btn"
)

// TabSchema is the tab activated when a table is selected.
const TabSchema = "schema"

// Regions declares which optional panels the hosting page provides. It is
// resolved once at construction instead of re-checking element existence on
// every event.
type Regions struct {
	Schema  bool
	Columns bool
	Indexes bool
}

// AllRegions is the full dashboard layout.
var AllRegions = Regions{Schema: true, Columns: true, Indexes: true}

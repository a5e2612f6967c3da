package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSurface records every capability call so tests can assert on what the
// client rendered without a browser.
type fakeSurface struct {
	mu        sync.Mutex
	regions   map[string]string
	values    map[string]string
	enabled   map[string]bool
	activeTab string
	switches  []string
	downloads map[string][]byte
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		regions:   make(map[string]string),
		values:    make(map[string]string),
		enabled:   make(map[string]bool),
		downloads: make(map[string][]byte),
	}
}

func (f *fakeSurface) Render(region, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions[region] = html
}

func (f *fakeSurface) ReadValue(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[field]
}

func (f *fakeSurface) SetValue(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
}

func (f *fakeSurface) SetEnabled(control string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled[control] = enabled
}

func (f *fakeSurface) ActiveTab() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeTab
}

func (f *fakeSurface) SwitchTab(tab string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeTab = tab
	f.switches = append(f.switches, tab)
}

func (f *fakeSurface) Download(filename string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[filename] = data
}

func (f *fakeSurface) region(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regions[name]
}

func (f *fakeSurface) isEnabled(control string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled[control]
}

func (f *fakeSurface) download(filename string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.downloads[filename]
	return data, ok
}

// requestRecorder counts requests so tests can prove local guards never hit
// the network.
type requestRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *requestRecorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *requestRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeSurface, *requestRecorder) {
	t.Helper()
	rec := &requestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.URL.Path)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	surface := newFakeSurface()
	client := NewClient(Config{
		BaseURL:  srv.URL,
		Surface:  surface,
		Regions:  AllRegions,
		PageSize: 50,
	})
	return client, surface, rec
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestConnectEmptyPathSkipsRequest(t *testing.T) {
	client, surface, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))

	client.Connect(context.Background())

	assert.Equal(t, 0, rec.count())
	assert.Contains(t, surface.region(RegionStatus), "Database path required")
}

func TestConnectSuccessLoadsTables(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/connect", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DBPath string `json:"db_path"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/tmp/app.db", req.DBPath)
		writeJSON(w, map[string]any{"success": true, "message": "Connected successfully"})
	})
	mux.HandleFunc("/api/tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "tables": []string{"orders", "users"}})
	})

	client, surface, _ := newTestClient(t, mux)
	surface.SetValue(FieldDBPath, "/tmp/app.db")

	client.Connect(context.Background())

	assert.Contains(t, surface.region(RegionStatus), "Connected successfully")
	assert.True(t, surface.isEnabled(ControlExecute))
	assert.True(t, surface.isEnabled(ControlExport))
	tables := surface.region(RegionTables)
	assert.Contains(t, tables, `data-table="orders"`)
	assert.Contains(t, tables, `data-table="users"`)
}

func TestConnectFailureShowsServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/connect", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{"success": false, "error": "database file not found"})
	})

	client, surface, _ := newTestClient(t, mux)
	surface.SetValue(FieldDBPath, "/nope.db")

	client.Connect(context.Background())

	assert.Contains(t, surface.region(RegionStatus), "database file not found")
	assert.False(t, surface.isEnabled(ControlExecute))
}

func TestDisconnectResetsEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/disconnect", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, surface, _ := newTestClient(t, mux)
	surface.Render(RegionTables, "<li>users</li>")
	surface.Render(RegionResults, "<table></table>")
	client.mu.Lock()
	client.lastQuery = "SELECT 1"
	client.selectedTable = "users"
	client.mu.Unlock()

	client.Disconnect(context.Background())

	assert.Empty(t, surface.region(RegionTables))
	assert.Empty(t, surface.region(RegionResults))
	assert.False(t, surface.isEnabled(ControlExecute))
	assert.Empty(t, client.LastQuery())
	assert.Empty(t, client.SelectedTable())
	assert.Contains(t, surface.region(RegionStatus), "Disconnected")
}

func TestTableNamesAreEscaped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "tables": []string{`<script>alert(1)</script>`}})
	})

	client, surface, _ := newTestClient(t, mux)
	client.LoadTables(context.Background())

	tables := surface.region(RegionTables)
	assert.NotContains(t, tables, "<script>")
	assert.Contains(t, tables, "&lt;script&gt;")
}

func TestSelectTablePrefillsAndSwitchesTab(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/table/users/schema", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "schema": "CREATE TABLE users (id INTEGER)"})
	})
	mux.HandleFunc("/api/table/users/columns", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<table class="info-table"></table>`))
	})
	mux.HandleFunc("/api/table/users/indexes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="empty-state">No indexes</div>`))
	})

	client, surface, _ := newTestClient(t, mux)
	client.SelectTable(context.Background(), "users")

	assert.Equal(t, "SELECT * FROM users;", surface.ReadValue(FieldQuery))
	assert.Equal(t, []string{TabSchema}, surface.switches)
	assert.Contains(t, surface.region(RegionSchema), "CREATE TABLE users")
	assert.Contains(t, surface.region(RegionColumns), "info-table")
	assert.Contains(t, surface.region(RegionIndexes), "No indexes")
	assert.Equal(t, "users", client.SelectedTable())
}

func TestSelectTableKeepsActiveSchemaTab(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "schema": ""})
	})

	client, surface, _ := newTestClient(t, mux)
	surface.activeTab = TabSchema

	client.SelectTable(context.Background(), "users")

	assert.Empty(t, surface.switches)
}

func TestSelectTableSchemaErrorIsIsolated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/table/users/schema", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": "table not found"})
	})
	mux.HandleFunc("/api/table/users/columns", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<table class="info-table"></table>`))
	})
	mux.HandleFunc("/api/table/users/indexes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, surface, _ := newTestClient(t, mux)
	client.SelectTable(context.Background(), "users")

	assert.Contains(t, surface.region(RegionSchema), "table not found")
	assert.Contains(t, surface.region(RegionColumns), "info-table")
	assert.Contains(t, surface.region(RegionIndexes), "Failed to load indexes")
}

func TestSelectTableDropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/table/users/schema", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, map[string]any{"success": true, "schema": "CREATE TABLE users (id INTEGER)"})
	})
	mux.HandleFunc("/api/table/users/columns", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`<div>users columns</div>`))
	})
	mux.HandleFunc("/api/table/users/indexes", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`<div>users indexes</div>`))
	})

	client, surface, _ := newTestClient(t, mux)

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.SelectTable(context.Background(), "users")
	}()

	// The user clicks another table while the first lookup is in flight.
	time.Sleep(20 * time.Millisecond)
	client.mu.Lock()
	client.selectedTable = "orders"
	client.mu.Unlock()
	close(release)
	<-done

	assert.NotContains(t, surface.region(RegionSchema), "users")
	assert.NotContains(t, surface.region(RegionColumns), "users columns")
}

func TestExecuteEmptyQuerySkipsRequest(t *testing.T) {
	client, surface, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))
	surface.SetValue(FieldQuery, "   ")

	client.ExecuteQuery(context.Background())

	assert.Equal(t, 0, rec.count())
	assert.Contains(t, surface.region(RegionStatus), "Query cannot be empty")
}

func TestExecuteRendersResultsAndRecordsCursor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query   string `json:"query"`
			Page    int    `json:"page"`
			PerPage int    `json:"per_page"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SELECT id, name FROM users", req.Query)
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 50, req.PerPage)
		_, _ = w.Write([]byte(`<table><tr><td>1</td><td>Ann</td></tr></table>`))
	})

	client, surface, _ := newTestClient(t, mux)
	surface.SetValue(FieldQuery, "SELECT id, name FROM users")

	client.ExecuteQuery(context.Background())

	assert.Contains(t, surface.region(RegionResults), "Ann")
	assert.Equal(t, "SELECT id, name FROM users", client.LastQuery())
	assert.Equal(t, "SELECT id, name FROM users", surface.region(RegionLastQuery))
}

func TestExecuteEscapesLastQueryDisplay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="query-error">error</div>`))
	})

	client, surface, _ := newTestClient(t, mux)
	surface.SetValue(FieldQuery, `SELECT '<script>' FROM users`)

	client.ExecuteQuery(context.Background())

	assert.NotContains(t, surface.region(RegionLastQuery), "<script>")
	assert.Contains(t, surface.region(RegionLastQuery), "&lt;script&gt;")
}

func TestPaginateWithoutQueryIsNoop(t *testing.T) {
	client, _, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))

	client.Paginate(context.Background(), "2")

	assert.Equal(t, 0, rec.count())
}

func TestPaginateBadPageAttrIsNoop(t *testing.T) {
	client, _, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))
	client.mu.Lock()
	client.lastQuery = "SELECT * FROM users"
	client.mu.Unlock()

	client.Paginate(context.Background(), "oops")

	assert.Equal(t, 0, rec.count())
}

func TestPaginateReissuesLastQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query   string `json:"query"`
			Page    int    `json:"page"`
			PerPage int    `json:"per_page"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SELECT * FROM users", req.Query)
		assert.Equal(t, 3, req.Page)
		assert.Equal(t, 50, req.PerPage)
		_, _ = w.Write([]byte(`<table></table>`))
	})

	client, _, rec := newTestClient(t, mux)
	client.mu.Lock()
	client.lastQuery = "SELECT * FROM users"
	client.lastPerPage = 50
	client.mu.Unlock()

	client.Paginate(context.Background(), "3")

	assert.Equal(t, 1, rec.count())
}

func TestPaginateKeepsOriginalPerPage(t *testing.T) {
	// The query ran with a different per-page than the client default;
	// pagination must reuse the recorded one.
	var got []int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PerPage int `json:"per_page"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req.PerPage)
		_, _ = w.Write([]byte(`<table></table>`))
	})

	client, _, _ := newTestClient(t, mux)
	client.mu.Lock()
	client.lastQuery = "SELECT * FROM users"
	client.lastPerPage = 10
	client.mu.Unlock()

	client.Paginate(context.Background(), "2")

	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0])
}

func TestClearQueryResetsEditorAndCursor(t *testing.T) {
	client, surface, _ := newTestClient(t, http.NewServeMux())
	surface.SetValue(FieldQuery, "SELECT 1")
	surface.Render(RegionResults, "<table></table>")
	client.mu.Lock()
	client.lastQuery = "SELECT 1"
	client.mu.Unlock()

	client.ClearQuery()

	assert.Empty(t, surface.ReadValue(FieldQuery))
	assert.Empty(t, surface.region(RegionResults))
	assert.Empty(t, client.LastQuery())
}

func TestExportWithoutQueryShowsStatus(t *testing.T) {
	client, surface, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))

	client.ExportCSV(context.Background())

	assert.Equal(t, 0, rec.count())
	assert.Contains(t, surface.region(RegionStatus), "Execute a query first")
	assert.True(t, surface.isEnabled(ControlExport))
}

func TestExportNonSelectIsBlockedLocally(t *testing.T) {
	client, surface, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	}))
	client.mu.Lock()
	client.lastQuery = "DROP TABLE users"
	client.mu.Unlock()

	client.ExportCSV(context.Background())

	assert.Equal(t, 0, rec.count())
	assert.Contains(t, surface.region(RegionStatus), "Only SELECT queries can be exported")
	assert.True(t, surface.isEnabled(ControlExport))
}

func TestExportDownloadsCSV(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,name\n1,Ann\n"))
	})

	client, surface, _ := newTestClient(t, mux)
	client.mu.Lock()
	client.lastQuery = "SELECT * FROM users"
	client.selectedTable = "users"
	client.mu.Unlock()

	client.ExportCSV(context.Background())

	data, ok := surface.download("users.csv")
	require.True(t, ok)
	assert.Equal(t, "id,name\n1,Ann\n", string(data))
	assert.True(t, surface.isEnabled(ControlExport))
	assert.Contains(t, surface.region(RegionStatus), "Export complete")
}

func TestExportServerErrorSurfacesMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query/export", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{"error": "No database connected"})
	})

	client, surface, _ := newTestClient(t, mux)
	client.mu.Lock()
	client.lastQuery = "SELECT * FROM users"
	client.mu.Unlock()

	client.ExportCSV(context.Background())

	assert.Contains(t, surface.region(RegionStatus), "No database connected")
	assert.True(t, surface.isEnabled(ControlExport))
	_, ok := surface.download("export.csv")
	assert.False(t, ok)
}

func TestStatusAutoClears(t *testing.T) {
	surface := newFakeSurface()
	client := NewClient(Config{
		BaseURL:          "http://localhost:0",
		Surface:          surface,
		Regions:          AllRegions,
		StatusClearDelay: 20 * time.Millisecond,
	})

	client.setStatus("Connected successfully", statusSuccess)
	assert.Contains(t, surface.region(RegionStatus), "Connected successfully")

	assert.Eventually(t, func() bool {
		return surface.region(RegionStatus) == ""
	}, time.Second, 5*time.Millisecond)
}

func TestNewerStatusSupersedesPendingClear(t *testing.T) {
	surface := newFakeSurface()
	client := NewClient(Config{
		BaseURL:          "http://localhost:0",
		Surface:          surface,
		Regions:          AllRegions,
		StatusClearDelay: 40 * time.Millisecond,
	})

	client.setStatus("first", statusError)
	time.Sleep(25 * time.Millisecond)
	client.setStatus("second", statusSuccess)

	// The first timer's window elapses; the second message must survive it.
	time.Sleep(25 * time.Millisecond)
	assert.Contains(t, surface.region(RegionStatus), "second")

	assert.Eventually(t, func() bool {
		return surface.region(RegionStatus) == ""
	}, time.Second, 5*time.Millisecond)
}

func TestStatusMessagesAreEscaped(t *testing.T) {
	surface := newFakeSurface()
	client := NewClient(Config{
		BaseURL: "http://localhost:0",
		Surface: surface,
		Regions: AllRegions,
	})

	client.setStatus(`<img src=x onerror=alert(1)>`, statusError)

	banner := surface.region(RegionStatus)
	assert.NotContains(t, banner, "<img")
	assert.Contains(t, banner, "&lt;img")
}

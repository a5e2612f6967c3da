// Package resources serves the dashboard's embedded static assets.
package resources

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded assets. Request paths are expected to begin
// with /static/ after the base-path prefix is stripped.
func Handler() http.Handler {
	return http.FileServerFS(staticFS)
}

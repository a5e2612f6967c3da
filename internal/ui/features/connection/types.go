// Package connection provides the connect/disconnect/status endpoints.
package connection

// ConnectRequest is the body of POST /api/connect.
type ConnectRequest struct {
	DBPath string `json:"db_path"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Connected bool     `json:"connected"`
	DBPath    string   `json:"db_path,omitempty"`
	Tables    []string `json:"tables"`
}

// bannerData feeds the status banner fragment.
type bannerData struct {
	Connected bool
	DBPath    string
}

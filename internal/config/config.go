// Package config loads dashboard configuration from file, environment
// variables, and CLI flags.
package config

import (
	"fmt"
	"strings"
)

// Default configuration values.
const (
	DefaultListenAddr      = ":8765"
	DefaultBasePath        = "/sqlite-opus"
	DefaultMaxQueryResults = 1000
	DefaultPageSize        = 50
)

// Config holds all dashboard configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `koanf:"listen_addr"`

	// BasePath is the URL prefix the dashboard is mounted under.
	BasePath string `koanf:"base_path"`

	// DBPath optionally preconfigures a database file that is connected
	// at startup.
	DBPath string `koanf:"db_path"`

	// MaxQueryResults caps the rows a plain (unpaginated) SELECT returns.
	MaxQueryResults int `koanf:"max_query_results"`

	// PageSize is the default per-page row count for paginated queries.
	PageSize int `koanf:"page_size"`

	// AllowDML permits INSERT/UPDATE/DELETE and DDL statements. When false
	// only SELECT queries are executed.
	AllowDML bool `koanf:"allow_dml"`

	// AuthUser and AuthPassword enable basic auth over the whole dashboard
	// when both are set.
	AuthUser     string `koanf:"auth_user"`
	AuthPassword string `koanf:"auth_password"`

	Verbose bool `koanf:"verbose"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		ListenAddr:      DefaultListenAddr,
		BasePath:        DefaultBasePath,
		MaxQueryResults: DefaultMaxQueryResults,
		PageSize:        DefaultPageSize,
	}
}

// AuthEnabled reports whether basic auth credentials are configured.
func (c *Config) AuthEnabled() bool {
	return c.AuthUser != "" && c.AuthPassword != ""
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.MaxQueryResults < 1 {
		return fmt.Errorf("max_query_results must be positive, got %d", c.MaxQueryResults)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if (c.AuthUser == "") != (c.AuthPassword == "") {
		return fmt.Errorf("auth_user and auth_password must be set together")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /, got %q", c.BasePath)
	}
	return nil
}

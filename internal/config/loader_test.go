package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultBasePath, cfg.BasePath)
	assert.Equal(t, DefaultMaxQueryResults, cfg.MaxQueryResults)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.False(t, cfg.AllowDML)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlite-opus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
db_path: /tmp/app.db
page_size: 25
allow_dml: true
`), 0600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/app.db", cfg.DBPath)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.AllowDML)
	// Untouched keys keep defaults.
	assert.Equal(t, DefaultBasePath, cfg.BasePath)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SQLITE_OPUS_LISTEN_ADDR", ":7777")
	t.Setenv("SQLITE_OPUS_PAGE_SIZE", "10")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestLoadFlagOverrides(t *testing.T) {
	t.Setenv("SQLITE_OPUS_LISTEN_ADDR", ":7777")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen-addr", "", "")
	flags.String("db-path", "", "")
	require.NoError(t, flags.Parse([]string{"--listen-addr", ":8888", "--db-path", "x.db"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// Flags beat env vars.
	assert.Equal(t, ":8888", cfg.ListenAddr)
	assert.Equal(t, "x.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, "listen_addr"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "page_size"},
		{"negative max results", func(c *Config) { c.MaxQueryResults = -1 }, "max_query_results"},
		{"auth user without password", func(c *Config) { c.AuthUser = "admin" }, "auth_user and auth_password"},
		{"relative base path", func(c *Config) { c.BasePath = "dash" }, "base_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ListenAddr:      DefaultListenAddr,
				BasePath:        DefaultBasePath,
				MaxQueryResults: DefaultMaxQueryResults,
				PageSize:        DefaultPageSize,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

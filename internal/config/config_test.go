package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.mibandtool.club:9073", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 20, cfg.Listing.PageSize)
	assert.Equal(t, "o66", cfg.Listing.DefaultDevice)
	assert.Equal(t, "127.0.0.1:8765", cfg.OAuth.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.OAuth.WaitTimeout)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
api:
  base_url: http://127.0.0.1:9000
  request_timeout: 5s
listing:
  page_size: 50
storage:
  path: /tmp/wf.db
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("WFTOOL_LISTING_DEFAULT_DEVICE", "n66")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 50, cfg.Listing.PageSize)
	assert.Equal(t, "n66", cfg.Listing.DefaultDevice)
	assert.Equal(t, "/tmp/wf.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listing:\n  page_size: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestLoadMalformedFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

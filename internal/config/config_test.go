package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"CHOZY_API_URL", "CHOZY_WEB_URL", "CHOZY_PLACEHOLDER_AVATAR", "CHOZY_HTTP_TIMEOUT", "CHOZY_PAGE_SIZE"} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHOZY_CONFIG_DIR", t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://chozy.net", cfg.APIURL)
	assert.Equal(t, "asset:dummy-profile", cfg.PlaceholderAvatar)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 20, cfg.PageSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("CHOZY_CONFIG_DIR", dir)

	content := `
api_url: "https://staging.chozy.net"
placeholder_avatar: "asset:staging-avatar"
http_timeout: "5s"
page_size: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	t.Setenv("CHOZY_API_URL", "http://localhost:9000")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.APIURL, "env should win over the file")
	assert.Equal(t, "asset:staging-avatar", cfg.PlaceholderAvatar)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.Path())
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("CHOZY_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http_timeout: soon\n"), 0644))

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_RejectsNonPositivePageSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHOZY_CONFIG_DIR", t.TempDir())
	t.Setenv("CHOZY_PAGE_SIZE", "0")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_IgnoresUnparseableEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHOZY_CONFIG_DIR", t.TempDir())
	t.Setenv("CHOZY_HTTP_TIMEOUT", "later")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

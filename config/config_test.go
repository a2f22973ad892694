package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "local", c.StorageBackend)
	assert.Equal(t, "reels", c.StorageBucket)
	assert.Equal(t, "720p", c.TargetResolution)
	assert.Equal(t, 0.15, c.WatermarkScale)
	assert.Equal(t, 10, c.WatermarkMarginPx)
	assert.Equal(t, 15, c.PollIntervalSec)
	assert.Equal(t, 10, c.LinkFetchTimeoutSec)
	assert.Equal(t, 60, c.RateLimitPerMinute)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := AppConfig{TargetResolution: "1080p", WatermarkScale: 0.2}
	applyDefaults(&c)

	assert.Equal(t, "1080p", c.TargetResolution)
	assert.Equal(t, 0.2, c.WatermarkScale)
}

func TestLoadJSONConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9090", "JWTSecret": "from-file", "AdminUsernames": ["root"]},
		"storage": {"Backend": "s3", "Bucket": "media", "S3Region": "us-east-1"},
		"transcode": {"WatermarkScale": 0.2, "WatermarkMarginPx": 16},
		"linkmeta": {"FetchTimeoutSec": 5}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, []string{"root"}, c.AdminUsernames)
	assert.Equal(t, "s3", c.StorageBackend)
	assert.Equal(t, "media", c.StorageBucket)
	assert.Equal(t, 0.2, c.WatermarkScale)
	assert.Equal(t, 16, c.WatermarkMarginPx)
	assert.Equal(t, 5, c.LinkFetchTimeoutSec)
}

func TestLoadJSONConfigMissingFile(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))
	assert.Zero(t, c.AppPort)
}

func TestLoadJSONConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_BUCKET", "override")
	t.Setenv("ADMIN_USERNAMES", "root, ops ,")
	t.Setenv("LINK_FETCH_TIMEOUT_SEC", "3")

	c := AppConfig{StorageBackend: "local", StorageBucket: "reels"}
	applyEnvOverrides(&c)

	assert.Equal(t, "s3", c.StorageBackend)
	assert.Equal(t, "override", c.StorageBucket)
	assert.Equal(t, []string{"root", "ops"}, c.AdminUsernames)
	assert.Equal(t, 3, c.LinkFetchTimeoutSec)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
	assert.Empty(t, splitAndTrim(" , "))
}

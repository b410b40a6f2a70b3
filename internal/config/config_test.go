package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, constants.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, constants.DefaultCatalogURL, cfg.Catalog.URL)
	assert.Equal(t, 8, cfg.Catalog.PageSize)
	assert.Equal(t, constants.DefaultNotificationGrace, cfg.Notifications.GracePeriod)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: badger
  path: /tmp/plants
catalog:
  url: https://plants.example.com
  page_size: 12
  timeout: 3s
notifications:
  enabled: false
  grace_period: 1h
  sender: log
timezone: America/Sao_Paulo
debug: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "/tmp/plants", cfg.Store.Path)
	assert.Equal(t, 12, cfg.Catalog.PageSize)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, time.Hour, cfg.Notifications.GracePeriod)
	assert.Equal(t, SenderLog, cfg.Notifications.Sender)
	assert.True(t, cfg.Debug)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
catalog:
  url: https://plants.example.com
  page_size: 12
`)
	t.Setenv("PLANTMANAGER_CATALOG_URL", "http://localhost:4000")
	t.Setenv("PLANTMANAGER_NOTIFICATIONS_GRACE_PERIOD", "45s")
	t.Setenv("PLANTMANAGER_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", cfg.Catalog.URL)
	assert.Equal(t, 12, cfg.Catalog.PageSize)
	assert.Equal(t, 45*time.Second, cfg.Notifications.GracePeriod)
	assert.True(t, cfg.Debug)
}

func TestLoad_IgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("URL", "http://wrong.example")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultCatalogURL, cfg.Catalog.URL)
	assert.NotContains(t, cfg.Store.Path, string(os.PathListSeparator))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "store:\n  backend: mongo\n"},
		{"bad page size", "catalog:\n  page_size: 0\n"},
		{"bad url", "catalog:\n  url: not a url\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"bad sender", "notifications:\n  sender: pigeon\n"},
		{"negative grace", "notifications:\n  grace_period: -1m\n"},
		{"unknown log level", "log:\n  level: chatty\n"},
		{"unknown log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestLoad_LogSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "plantmanager.log"), cfg.LogPath())

	path = writeConfig(t, `
log:
  file: /var/log/plantmanager/reminders.log
  level: info
  format: json
  max_size_mb: 2
`)
	t.Setenv("PLANTMANAGER_LOG_LEVEL", "debug")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/plantmanager/reminders.log", cfg.LogPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Log.MaxSizeMB)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Catalog.URL = "https://plants.example.com"
	cfg.Notifications.GracePeriod = 5 * time.Minute
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://plants.example.com", reloaded.Catalog.URL)
	assert.Equal(t, 5*time.Minute, reloaded.Notifications.GracePeriod)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "plantmanager"), ExpandPath("~/.config/plantmanager"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

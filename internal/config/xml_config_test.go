package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "layouts.duckdb"), cfg.Storage.DatabaseFile)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Editor, again.Editor)
	assert.Equal(t, cfg.Sessions, again.Sessions)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := `<?xml version="1.0" encoding="UTF-8"?>
<SeatPlanner>
  <Server><Port>9000</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Editor><MaxZoom>400</MaxZoom><DragCooldownMs>250</DragCooldownMs></Editor>
</SeatPlanner>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, 10, cfg.Sessions.MaxSessions)

	s := cfg.EditorSettings()
	assert.Equal(t, 400.0, s.MaxZoom)
	assert.Equal(t, 10.0, s.MinZoom)
	assert.Equal(t, 250*time.Millisecond, s.DragCooldown)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	t.Setenv("PORT", "7001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEATPLANNER_DB", "/var/lib/seats.duckdb")
	t.Setenv("DATA_DIR", "/srv/seats")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "/var/lib/seats.duckdb", cfg.Storage.DatabaseFile)
	assert.Equal(t, "/srv/seats", cfg.GetDataDir())
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("<SeatPlanner><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, FileName))
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.LayoutDirectory)
	assert.DirExists(t, cfg.GetDataDir())
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	cfg.Sessions.CleanupIntervalMinutes = 0
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
}

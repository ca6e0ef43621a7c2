package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the config path at a temp dir and clears PLANNER_* vars
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "tester")
	for _, key := range []string{"PLANNER_CONFIG", "PLANNER_STORE", "PLANNER_OWNER", "PLANNER_DATA_DIR", "PLANNER_UNDO_WINDOW", "PLANNER_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Default(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(CLIFlags{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "planner"), cfg.DataDir)
	assert.Equal(t, StoreMarkdown, cfg.Store)
	assert.Equal(t, "tester", cfg.Owner)
	assert.Equal(t, 7*time.Second, cfg.UndoWindow)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxImageBytes)
	assert.Equal(t, filepath.Join(home, "planner", "planner.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(home, "planner", "uploads"), cfg.UploadDir)
	assert.Equal(t, ViewBoard, cfg.DefaultView)
	assert.Same(t, cfg, Get())
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
store: sqlite
owner: studio
undo_window: 10s
max_image_bytes: 1024
upload_base_url: https://cdn.example.com
`)

	cfg, err := LoadFrom(path, CLIFlags{})
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "studio", cfg.Owner)
	assert.Equal(t, 10*time.Second, cfg.UndoWindow)
	assert.Equal(t, int64(1024), cfg.MaxImageBytes)
	assert.Equal(t, "https://cdn.example.com", cfg.UploadBaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "store: sqlite\nowner: studio\n")
	t.Setenv("PLANNER_STORE", "memory")
	t.Setenv("PLANNER_UNDO_WINDOW", "3s")

	cfg, err := LoadFrom(path, CLIFlags{})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "studio", cfg.Owner)
	assert.Equal(t, 3*time.Second, cfg.UndoWindow)
}

func TestLoad_CLIFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PLANNER_OWNER", "env-owner")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), CLIFlags{
		Owner: "flag-owner",
		Store: "SQLite",
	})
	require.NoError(t, err)
	assert.Equal(t, "flag-owner", cfg.Owner)
	assert.Equal(t, StoreSQLite, cfg.Store)
}

func TestLoad_PathExpansion(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(CLIFlags{DataDir: "~/content"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "content"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "content", "planner.db"), cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)

	_, err := Load(CLIFlags{Store: "postgres"})
	assert.ErrorContains(t, err, "unknown store")

	_, err = Load(CLIFlags{View: "calendar"})
	assert.ErrorContains(t, err, "unknown view")

	path := writeConfig(t, t.TempDir(), "undo_window: 0s\n")
	_, err = LoadFrom(path, CLIFlags{})
	assert.ErrorContains(t, err, "undo_window")
}

func TestEnsureConfigFile(t *testing.T) {
	home := isolate(t)

	require.NoError(t, EnsureConfigFile())
	path := filepath.Join(home, ".config", "planner", "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "store: markdown")

	// existing files are left alone
	require.NoError(t, os.WriteFile(path, []byte("store: sqlite\n"), 0644))
	require.NoError(t, EnsureConfigFile())
	cfg, err := Load(CLIFlags{})
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
}

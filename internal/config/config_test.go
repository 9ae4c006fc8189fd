package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "overdue", cfg.Query)
	assert.Equal(t, 3, cfg.UrgentPriority)
	assert.Equal(t, 24*time.Hour, cfg.CompletionWindow)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(".resched", "history.db"), cfg.History.DBPath)
	assert.Empty(t, cfg.Todoist.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Todoist.Timeout)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `log_level: debug
query: "overdue & @home"
completion_window: 48h
todoist:
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "overdue & @home", cfg.Query)
	assert.Equal(t, 48*time.Hour, cfg.CompletionWindow)
	assert.Equal(t, 5*time.Second, cfg.Todoist.Timeout)
	// Unset fields keep defaults.
	assert.Equal(t, 3, cfg.UrgentPriority)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfigHistoryCanBeDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `history:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadConfigInvalidWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completion_window: soon\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion_window")
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [broken\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestAPIToken(t *testing.T) {
	t.Setenv(APITokenEnv, "secret")

	token, err := APIToken()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)
}

func TestAPITokenMissing(t *testing.T) {
	t.Setenv(APITokenEnv, "")

	_, err := APIToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), APITokenEnv)
}

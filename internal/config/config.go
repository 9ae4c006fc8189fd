// Package config loads resched configuration from a yaml file, merged over
// built-in defaults. The Todoist API token is deliberately excluded from the
// file and comes only from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// APITokenEnv is the environment variable holding the Todoist API token.
const APITokenEnv = "TODOIST_API_TOKEN"

// DefaultConfigDir is the directory resched keeps its files in, relative to
// the working directory.
const DefaultConfigDir = ".resched"

// TodoistConfig holds API client settings.
type TodoistConfig struct {
	// BaseURL overrides the API endpoint (empty = production Todoist).
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig holds run-history store settings.
type HistoryConfig struct {
	// Enabled turns the sqlite run history on or off.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database.
	DBPath string `yaml:"db_path"`
}

// Config represents resched configuration options.
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Query is the Todoist filter expression selecting tasks to reschedule.
	Query string `yaml:"query"`

	// UrgentPriority is the minimum priority treated as urgent.
	UrgentPriority int `yaml:"urgent_priority"`

	// CompletionWindow is how far back the completion sweep looks.
	CompletionWindow time.Duration `yaml:"completion_window"`

	// LockPath is the lock file guarding against concurrent runs.
	LockPath string `yaml:"lock_path"`

	// History contains run-history store configuration.
	History HistoryConfig `yaml:"history"`

	// Todoist contains API client configuration.
	Todoist TodoistConfig `yaml:"todoist"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		Query:            "overdue",
		UrgentPriority:   3,
		CompletionWindow: 24 * time.Hour,
		LockPath:         filepath.Join(DefaultConfigDir, "run.lock"),
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(DefaultConfigDir, "history.db"),
		},
		Todoist: TodoistConfig{
			BaseURL: "",
			Timeout: 30 * time.Second,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("30s", "48h"), so parse through a
	// temporary struct.
	type yamlTodoist struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	type yamlConfig struct {
		LogLevel         string        `yaml:"log_level"`
		Query            string        `yaml:"query"`
		UrgentPriority   int           `yaml:"urgent_priority"`
		CompletionWindow string        `yaml:"completion_window"`
		LockPath         string        `yaml:"lock_path"`
		History          HistoryConfig `yaml:"history"`
		Todoist          yamlTodoist   `yaml:"todoist"`
	}

	var yamlCfg yamlConfig
	// History.Enabled defaults to true, so a file that omits the history
	// section must not switch it off.
	yamlCfg.History = cfg.History

	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Query != "" {
		cfg.Query = yamlCfg.Query
	}
	if yamlCfg.UrgentPriority != 0 {
		cfg.UrgentPriority = yamlCfg.UrgentPriority
	}
	if yamlCfg.CompletionWindow != "" {
		window, err := time.ParseDuration(yamlCfg.CompletionWindow)
		if err != nil {
			return nil, fmt.Errorf("invalid completion_window %q: %w", yamlCfg.CompletionWindow, err)
		}
		cfg.CompletionWindow = window
	}
	if yamlCfg.LockPath != "" {
		cfg.LockPath = yamlCfg.LockPath
	}
	cfg.History.Enabled = yamlCfg.History.Enabled
	if yamlCfg.History.DBPath != "" {
		cfg.History.DBPath = yamlCfg.History.DBPath
	}
	if yamlCfg.Todoist.BaseURL != "" {
		cfg.Todoist.BaseURL = yamlCfg.Todoist.BaseURL
	}
	if yamlCfg.Todoist.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Todoist.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid todoist timeout %q: %w", yamlCfg.Todoist.Timeout, err)
		}
		cfg.Todoist.Timeout = timeout
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from dir/.resched/config.yaml.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultConfigDir, "config.yaml"))
}

// APIToken reads the Todoist API token from the environment. The token is
// the only credential resched uses and never appears in the config file.
func APIToken() (string, error) {
	token := os.Getenv(APITokenEnv)
	if token == "" {
		return "", fmt.Errorf("%s is not set", APITokenEnv)
	}
	return token, nil
}

// Package config provides unified configuration loading for lvlup.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/lvlup/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config contains all lvlup configuration settings.
type Config struct {
	// Storage selects where the stat snapshot and change log live.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Server configures the HTTP API.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Backup configures backup location and retention.
	Backup BackupConfig `json:"backup" yaml:"backup"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Backend is "file" (JSON snapshot, default) or "sqlite".
	Backend constants.Backend `json:"backend" yaml:"backend"`

	// DataDir holds the snapshot, change log and event log.
	// Empty means ~/.lvlup. Supports ${VAR} syntax.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, e.g. "localhost:5000".
	Addr string `json:"addr" yaml:"addr"`

	// ModelPath is the binary asset served from /model. Relative paths
	// resolve against the working directory.
	ModelPath string `json:"model_path" yaml:"model_path"`

	// UpdatesPerMinute limits stat mutations. 0 disables limiting.
	UpdatesPerMinute int `json:"updates_per_minute" yaml:"updates_per_minute"`
}

// LoggingConfig configures lvlup's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", "trace", "warn" or "error".
	// "debug" and "trace" enable event logging to <data_dir>/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// BackupConfig configures backups.
type BackupConfig struct {
	// Dir is where backups are written. Empty means <data_dir>/backups.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// MaxCount is the number of backups kept after each new backup. 0 keeps all.
	MaxCount int `json:"max_count" yaml:"max_count"`

	// Compression writes gzip backups with a checksummed header.
	Compression bool `json:"compression" yaml:"compression"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: constants.BackendFile,
		},
		Server: ServerConfig{
			Addr:             constants.DefaultAddr,
			ModelPath:        constants.DefaultModelPath,
			UpdatesPerMinute: constants.DefaultUpdateRatePerMinute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Backup: BackupConfig{
			MaxCount:    constants.DefaultBackupMaxCount,
			Compression: true,
		},
	}
}

// DefaultPath returns ~/.lvlup/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lvlup", "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when path is empty.
// Order: defaults -> config file -> environment variables.
// A missing default config file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Storage.DataDir = expandEnvVars(config.Storage.DataDir)
	config.Server.ModelPath = expandEnvVars(config.Server.ModelPath)
	config.Backup.Dir = expandEnvVars(config.Backup.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !c.Storage.Backend.Valid() {
		return fmt.Errorf("invalid storage backend: %s (valid: file, sqlite)", c.Storage.Backend)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}

	if c.Server.UpdatesPerMinute < 0 {
		return fmt.Errorf("updates_per_minute must be non-negative, got %d", c.Server.UpdatesPerMinute)
	}

	if c.Backup.MaxCount < 0 {
		return fmt.Errorf("backup max_count must be non-negative, got %d", c.Backup.MaxCount)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// DataDir returns the configured data directory, defaulting to ~/.lvlup.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lvlup"), nil
}

// BackupDir returns the configured backup directory, defaulting to <data_dir>/backups.
func (c *Config) BackupDir() (string, error) {
	if c.Backup.Dir != "" {
		return c.Backup.Dir, nil
	}
	dataDir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "backups"), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LVLUP_DATA_DIR"); v != "" {
		config.Storage.DataDir = v
	}

	if v := os.Getenv("LVLUP_STORAGE"); v != "" {
		config.Storage.Backend = constants.Backend(strings.ToLower(v))
	}

	if v := os.Getenv("LVLUP_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("LVLUP_MODEL_PATH"); v != "" {
		config.Server.ModelPath = v
	}

	if v := os.Getenv("LVLUP_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Server.UpdatesPerMinute = n
		}
	}

	if v := os.Getenv("LVLUP_BACKUP_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Backup.MaxCount = n
		}
	}

	if v := os.Getenv("LVLUP_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

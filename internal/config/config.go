// Package config provides configuration loading and structs for the docvault service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug" koanf:"debug"`
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Storage StorageConfig `yaml:"storage" koanf:"storage"`
	Key     KeyConfig     `yaml:"key" koanf:"key"`
	Search  SearchConfig  `yaml:"search" koanf:"search"`
	Watch   WatchConfig   `yaml:"watch" koanf:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host" koanf:"host" validate:"required"`
	Port           int    `yaml:"port" koanf:"port" validate:"min=1,max=65535"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" koanf:"max_upload_bytes" validate:"gt=0"`
}

// StorageConfig holds paths for the database, saved uploads and history exports.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" koanf:"database_path" validate:"required"`
	UploadDir    string `yaml:"upload_dir" koanf:"upload_dir" validate:"required"`
	ExportDir    string `yaml:"export_dir" koanf:"export_dir" validate:"required"`
}

// KeyConfig selects where the document encryption key comes from.
type KeyConfig struct {
	// Source is one of "file", "env" or "ephemeral".
	Source string `yaml:"source" koanf:"source" validate:"oneof=file env ephemeral"`
	Path   string `yaml:"path" koanf:"path" validate:"required_if=Source file"`
	EnvVar string `yaml:"env_var" koanf:"env_var" validate:"required_if=Source env"`
}

// SearchConfig holds search and history settings.
type SearchConfig struct {
	// PreviewLength is how many characters of each match are kept in history.
	PreviewLength int    `yaml:"preview_length" koanf:"preview_length" validate:"gt=0"`
	DefaultUser   string `yaml:"default_user" koanf:"default_user" validate:"required"`
}

// WatchConfig holds inbox directory settings. Files dropped into these
// directories are uploaded as if sent by a client.
type WatchConfig struct {
	Directories []string `yaml:"directories" koanf:"directories"`
	Extensions  []string `yaml:"extensions" koanf:"extensions" validate:"dive,oneof=.pdf .docx .txt pdf docx txt"`
}

// Load reads and parses the config file at path, applies environment overrides
// and defaults, expands paths, and validates the result.
// Returns an error if the file cannot be read or parsed, or the result is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg, filepath.Dir(path))
}

// LoadDefaults returns the built-in configuration with environment overrides applied.
// Relative "./" paths are resolved against the working directory.
func LoadDefaults() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return finish(&Config{}, cwd)
}

func finish(cfg *Config, configDir string) (*Config, error) {
	if err := ApplyEnv(cfg, os.Environ()); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Storage.ExportDir = expandPath(cfg.Storage.ExportDir, configDir)
	cfg.Key.Path = expandPath(cfg.Key.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" and "" are kept as-is.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestLoad(t *testing.T) {
	_, path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Search.PreviewLength != 500 || cfg.Search.DefaultUser != "test_user" {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	_, path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir, path := writeConfig(t, `
storage:
  database_path: "./data/docvault.db"
  upload_dir: "./uploads"
  export_dir: "./exports"
key:
  path: "./keys/docvault.key"
watch:
  directories: ["./inbox"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string][2]string{
		"database_path": {cfg.Storage.DatabasePath, filepath.Join(dir, "data", "docvault.db")},
		"upload_dir":    {cfg.Storage.UploadDir, filepath.Join(dir, "uploads")},
		"export_dir":    {cfg.Storage.ExportDir, filepath.Join(dir, "exports")},
		"key.path":      {cfg.Key.Path, filepath.Join(dir, "keys", "docvault.key")},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories: got %v", cfg.Watch.Directories)
	}
}

func TestLoad_memoryDatabaseKept(t *testing.T) {
	_, path := writeConfig(t, `
storage:
  database_path: ":memory:"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %s, want :memory:", cfg.Storage.DatabasePath)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("DOCVAULT_SERVER__PORT", "9100")
	t.Setenv("DOCVAULT_DEBUG", "true")
	t.Setenv("DOCVAULT_SEARCH__DEFAULT_USER", "alice")
	t.Setenv("DOCVAULT_WATCH__EXTENSIONS", ".txt")
	_, path := writeConfig(t, `
server:
  port: 9000
watch:
  extensions: [".pdf", ".docx", ".txt"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port: got %d, want 9100", cfg.Server.Port)
	}
	if !cfg.Debug {
		t.Error("debug should be set from environment")
	}
	if cfg.Search.DefaultUser != "alice" {
		t.Errorf("default user: got %s", cfg.Search.DefaultUser)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("extensions should be replaced, got %v", cfg.Watch.Extensions)
	}
}

func TestLoad_envKeySourceGetsDefaultVar(t *testing.T) {
	t.Setenv("DOCVAULT_KEY__SOURCE", "env")
	_, path := writeConfig(t, "debug: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Key.Source != "env" || cfg.Key.EnvVar != "DOCVAULT_SECRET_KEY" {
		t.Errorf("unexpected key config: %+v", cfg.Key)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad key source", "key:\n  source: vault\n"},
		{"bad extension", "watch:\n  extensions: [\".xlsx\"]\n"},
		{"negative preview", "search:\n  preview_length: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid config") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCVAULT_STORAGE__DATABASE_PATH", ":memory:")
	cfg, err := LoadDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path: got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Key.Source != "file" || cfg.Key.Path == "" {
		t.Errorf("unexpected key defaults: %+v", cfg.Key)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 32<<20 {
		t.Errorf("default max upload: got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Key.Source != "file" {
		t.Errorf("default key source: got %s", cfg.Key.Source)
	}
	if len(cfg.Watch.Extensions) != 3 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	cfg.Watch.Extensions[0] = ".changed"
	if DefaultExtensions[0] != ".pdf" {
		t.Error("ApplyDefaults must copy DefaultExtensions")
	}
}

func TestValidate_watchDirIsReserved(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	tests := []struct {
		name string
		dir  string
	}{
		{"upload dir", cfg.Storage.UploadDir + "/"},
		{"export dir", cfg.Storage.ExportDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			c.Watch.Directories = []string{tt.dir}
			if err := Validate(&c); err == nil {
				t.Errorf("expected error when watching %s", tt.dir)
			}
		})
	}

	cfg.Watch.Directories = []string{filepath.Join(filepath.Dir(cfg.Storage.UploadDir), "inbox")}
	if err := Validate(cfg); err != nil {
		t.Errorf("inbox directory should be allowed: %v", err)
	}
}

func TestReservedDirectory(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{UploadDir: "/data/uploads", ExportDir: "/data/exports"}}
	if role, ok := ReservedDirectory(cfg, "/data/uploads/"); !ok || role != "upload" {
		t.Errorf("upload: got %q, %v", role, ok)
	}
	if role, ok := ReservedDirectory(cfg, "/data/exports"); !ok || role != "export" {
		t.Errorf("export: got %q, %v", role, ok)
	}
	if _, ok := ReservedDirectory(cfg, "/data/inbox"); ok {
		t.Error("inbox should not be reserved")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}

package config

const (
	defaultDataDir        = "/usr/local/var/docvault"
	defaultMaxUploadBytes = 32 << 20
	defaultPreviewLength  = 500
	defaultUser           = "test_user"
)

// DefaultExtensions are the upload suffixes the inbox watcher picks up.
var DefaultExtensions = []string{".pdf", ".docx", ".txt"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = defaultDataDir + "/data/docvault.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = defaultDataDir + "/uploads"
	}
	if cfg.Storage.ExportDir == "" {
		cfg.Storage.ExportDir = defaultDataDir + "/exports"
	}
	if cfg.Key.Source == "" {
		cfg.Key.Source = "file"
	}
	if cfg.Key.Source == "file" && cfg.Key.Path == "" {
		cfg.Key.Path = defaultDataDir + "/keys/docvault.key"
	}
	if cfg.Key.Source == "env" && cfg.Key.EnvVar == "" {
		cfg.Key.EnvVar = "DOCVAULT_SECRET_KEY"
	}
	if cfg.Search.PreviewLength == 0 {
		cfg.Search.PreviewLength = defaultPreviewLength
	}
	if cfg.Search.DefaultUser == "" {
		cfg.Search.DefaultUser = defaultUser
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = append([]string(nil), DefaultExtensions...)
	}
}

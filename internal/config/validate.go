package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, dir := range cfg.Watch.Directories {
		if role, ok := ReservedDirectory(cfg, dir); ok {
			return fmt.Errorf("invalid config: watch directory %q is the %s directory", dir, role)
		}
	}
	return nil
}

// ReservedDirectory reports whether dir is the upload or export directory, which
// must never be watched: files written there by docvault would be ingested again.
// role is "upload" or "export".
func ReservedDirectory(cfg *Config, dir string) (role string, ok bool) {
	dir = filepath.Clean(dir)
	switch {
	case cfg.Storage.UploadDir != "" && dir == filepath.Clean(cfg.Storage.UploadDir):
		return "upload", true
	case cfg.Storage.ExportDir != "" && dir == filepath.Clean(cfg.Storage.ExportDir):
		return "export", true
	}
	return "", false
}

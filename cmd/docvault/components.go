package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/app"
	"github.com/hyperjump/docvault/internal/cipherbox"
	"github.com/hyperjump/docvault/internal/config"
	"github.com/hyperjump/docvault/internal/storage"
)

// Components holds initialized service dependencies.
type Components struct {
	Storage   *storage.SQLiteStorage
	Box       *cipherbox.Box
	KeySource string
	Service   *app.Service
}

// Close releases the database.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents resolves the key, opens the database and builds the service.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	provider, err := cipherbox.NewKeyProvider(cfg.Key.Source, cfg.Key.Path, cfg.Key.EnvVar)
	if err != nil {
		return nil, fmt.Errorf("key provider: %w", err)
	}
	box, err := cipherbox.Open(provider)
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	logger.Debug("key loaded", zap.String("source", provider.Source()), zap.String("key_id", box.KeyID()))

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Debug("storage opened", zap.String("path", cfg.Storage.DatabasePath))

	svc := app.New(store, box, app.Options{
		DatabasePath:  cfg.Storage.DatabasePath,
		UploadDir:     cfg.Storage.UploadDir,
		ExportDir:     cfg.Storage.ExportDir,
		PreviewLength: cfg.Search.PreviewLength,
		KeySource:     provider.Source(),
	}, app.WithLogger(logger))

	return &Components{
		Storage:   store,
		Box:       box,
		KeySource: provider.Source(),
		Service:   svc,
	}, nil
}

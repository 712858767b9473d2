// Package history records per-user search history and exports it to text files.
package history

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/internal/storage"
)

// Recorder appends and reads history rows and writes per-user export files.
type Recorder struct {
	store     storage.HistoryStore
	exportDir string
	logger    *zap.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder returns a Recorder backed by store. Export files are written under exportDir.
func NewRecorder(store storage.HistoryStore, exportDir string, opts ...Option) *Recorder {
	r := &Recorder{
		store:     store,
		exportDir: exportDir,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one (user, query, response) row. response is stored as given.
func (r *Recorder) Record(ctx context.Context, user, query, response string) error {
	if err := models.ValidateUser(user); err != nil {
		return err
	}
	rec := &models.HistoryRecord{User: user, Query: query, Response: response}
	if err := r.store.InsertHistory(ctx, rec); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	r.logger.Debug("history recorded", zap.String("user", user), zap.Int64("id", rec.ID))
	return nil
}

// ListFor returns the user's records in insertion order.
func (r *Recorder) ListFor(ctx context.Context, user string) ([]*models.HistoryRecord, error) {
	if err := models.ValidateUser(user); err != nil {
		return nil, err
	}
	recs, err := r.store.ListHistory(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return recs, nil
}

// ExportPath is the file ExportToFile writes for user.
func (r *Recorder) ExportPath(user string) string {
	return filepath.Join(r.exportDir, user+"_history.txt")
}

// ExportToFile writes the user's history to ExportPath(user), replacing any
// previous export, and returns the path. A user with no history gets an empty file.
func (r *Recorder) ExportToFile(ctx context.Context, user string) (string, error) {
	recs, err := r.ListFor(ctx, user)
	if err != nil {
		return "", err
	}
	if r.exportDir != "" {
		if err := os.MkdirAll(r.exportDir, 0755); err != nil {
			return "", fmt.Errorf("%w: create export dir: %w", models.ErrFileIO, err)
		}
	}
	path := r.ExportPath(user)
	if err := os.WriteFile(path, Format(recs), 0644); err != nil {
		return "", fmt.Errorf("%w: write export: %w", models.ErrFileIO, err)
	}
	r.logger.Debug("history exported",
		zap.String("user", user),
		zap.String("path", path),
		zap.Int("records", len(recs)))
	return path, nil
}

// Format renders records as "Query: <q>\nResponse: <r>\n\n" blocks.
func Format(recs []*models.HistoryRecord) []byte {
	var buf bytes.Buffer
	for _, rec := range recs {
		fmt.Fprintf(&buf, "Query: %s\nResponse: %s\n\n", rec.Query, rec.Response)
	}
	return buf.Bytes()
}

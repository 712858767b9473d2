// Package app wires extraction, encryption, storage, search and history into one service
// shared by the CLI and the HTTP server.
package app

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/cipherbox"
	"github.com/hyperjump/docvault/internal/history"
	"github.com/hyperjump/docvault/internal/ingest"
	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/internal/search"
	"github.com/hyperjump/docvault/internal/storage"
	"github.com/hyperjump/docvault/pkg/utils"
)

// DefaultPreviewLength is the number of characters of each match kept in history.
const DefaultPreviewLength = 500

// Options holds the paths and limits the service needs.
type Options struct {
	DatabasePath  string
	UploadDir     string
	ExportDir     string
	PreviewLength int
	// KeySource is reported by Status ("file", "env" or "ephemeral").
	KeySource string
}

// Service is the application facade. Caller identity is passed explicitly to
// every user-scoped operation.
type Service struct {
	store    storage.Storage
	box      *cipherbox.Box
	ingester *ingest.Ingester
	engine   *search.Engine
	recorder *history.Recorder
	opts     Options
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; component loggers are derived from it.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Service over store and box.
func New(store storage.Storage, box *cipherbox.Box, o Options, opts ...Option) *Service {
	if o.PreviewLength <= 0 {
		o.PreviewLength = DefaultPreviewLength
	}
	s := &Service{
		store:  store,
		box:    box,
		opts:   o,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ingester = ingest.NewIngester(store, box, nil, o.UploadDir,
		ingest.WithLogger(utils.Named(s.logger, "ingest")))
	s.engine = search.NewEngine(store, box,
		search.WithLogger(utils.Named(s.logger, "search")))
	s.recorder = history.NewRecorder(store, o.ExportDir,
		history.WithLogger(utils.Named(s.logger, "history")))
	return s
}

// Upload saves and ingests one file. See ingest.Ingester.Upload.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*models.Document, error) {
	doc, err := s.ingester.Upload(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document uploaded", zap.String("filename", doc.Filename), zap.Int64("id", doc.ID))
	return doc, nil
}

// UploadPath uploads a file from the local filesystem under its base name.
func (s *Service) UploadPath(ctx context.Context, path string) (*models.Document, error) {
	doc, err := s.ingester.UploadPath(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document uploaded", zap.String("filename", doc.Filename), zap.Int64("id", doc.ID))
	return doc, nil
}

// UploadDirectory uploads every matching file directly inside dir and returns how many were stored.
func (s *Service) UploadDirectory(ctx context.Context, dir string, exts []string) (int, error) {
	return s.ingester.UploadDirectory(ctx, dir, exts)
}

// Search runs query for user and records one history row per match holding the
// first PreviewLength characters of the match. The returned matches carry the
// same preview. A history failure is reported in SearchResponse.HistoryError and
// does not discard the matches.
func (s *Service) Search(ctx context.Context, user, query string) (*models.SearchResponse, error) {
	if err := models.ValidateUser(user); err != nil {
		return nil, err
	}
	start := time.Now()
	matches, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{
		Query:   query,
		User:    user,
		Matches: make([]*models.Match, 0, len(matches)),
		Total:   len(matches),
	}
	for _, m := range matches {
		preview := utils.Preview(m.Text, s.opts.PreviewLength)
		if err := s.recorder.Record(ctx, user, query, preview); err != nil && resp.HistoryError == "" {
			s.logger.Warn("history write failed", zap.String("user", user), zap.Error(err))
			resp.HistoryError = err.Error()
		}
		resp.Matches = append(resp.Matches, &models.Match{
			DocumentID: m.DocumentID,
			Filename:   m.Filename,
			Text:       preview,
		})
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// History returns the user's records in insertion order.
func (s *Service) History(ctx context.Context, user string) ([]*models.HistoryRecord, error) {
	return s.recorder.ListFor(ctx, user)
}

// ExportHistory writes the user's history file and returns its path.
func (s *Service) ExportHistory(ctx context.Context, user string) (string, error) {
	return s.recorder.ExportToFile(ctx, user)
}

// Status reports row counts, the active key and disk usage. Disk usage is
// omitted when it cannot be measured.
func (s *Service) Status(ctx context.Context) (*models.Status, error) {
	docs, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.CountHistory(ctx)
	if err != nil {
		return nil, err
	}
	st := &models.Status{
		Documents:      docs,
		HistoryRecords: recs,
		KeyID:          s.box.KeyID(),
		KeySource:      s.opts.KeySource,
	}
	if n, err := storage.DiskUsageBytes(s.opts.DatabasePath, s.opts.UploadDir, s.opts.ExportDir); err == nil {
		st.DiskUsageBytes = &n
	} else {
		s.logger.Debug("disk usage unavailable", zap.Error(err))
	}
	return st, nil
}

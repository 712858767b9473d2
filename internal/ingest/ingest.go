// Package ingest turns uploaded files into encrypted document rows.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/extract"
	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/internal/storage"
)

// Encrypter seals extracted text before it is stored.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// Ingester saves uploads, extracts their text, encrypts it and inserts one row per file.
type Ingester struct {
	docs      storage.DocumentStore
	cipher    Encrypter
	extractor *extract.Extractor
	uploadDir string
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets a logger for debug output (file saved, document stored, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngester creates an Ingester. Uploaded bytes are written under uploadDir.
// extractor may be nil, in which case a default Extractor is used.
func NewIngester(docs storage.DocumentStore, cipher Encrypter, extractor *extract.Extractor, uploadDir string, opts ...Option) *Ingester {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	in := &Ingester{
		docs:      docs,
		cipher:    cipher,
		extractor: extractor,
		uploadDir: uploadDir,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// UploadDir returns the directory uploads are saved to.
func (in *Ingester) UploadDir() string {
	return in.uploadDir
}

// Upload stores the bytes read from r as <uploadDir>/<base filename> and ingests them.
// The type is checked before anything is written. A file with the same name is replaced.
func (in *Ingester) Upload(ctx context.Context, filename string, r io.Reader) (*models.Document, error) {
	if _, err := extract.TypeFromFilename(filename); err != nil {
		return nil, err
	}
	path, err := in.SaveUpload(filename, r)
	if err != nil {
		return nil, err
	}
	return in.IngestFile(ctx, path)
}

// SaveUpload writes r to <uploadDir>/<base filename> and returns the path.
// The write is not atomic; a failed copy can leave a partial file.
func (in *Ingester) SaveUpload(filename string, r io.Reader) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return "", fmt.Errorf("%w: invalid file name %q", models.ErrFileIO, filename)
	}
	if err := os.MkdirAll(in.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create upload dir: %w", models.ErrFileIO, err)
	}
	path := filepath.Join(in.uploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", models.ErrFileIO, name, err)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", models.ErrFileIO, name, err)
	}
	in.logger.Debug("upload saved", zap.String("path", path), zap.Int64("bytes", n))
	return path, nil
}

// IngestFile extracts text from the file at path, encrypts it and inserts a row
// named after the file's base name. Empty text returns models.ErrEmptyContent and
// inserts nothing.
func (in *Ingester) IngestFile(ctx context.Context, path string) (*models.Document, error) {
	t, err := extract.TypeFromFilename(path)
	if err != nil {
		return nil, err
	}
	text, err := in.extractor.Extract(path, t)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if text == "" {
		in.logger.Debug("no text extracted", zap.String("path", path))
		return nil, fmt.Errorf("%w: %s", models.ErrEmptyContent, name)
	}
	token, err := in.cipher.Encrypt(text)
	if err != nil {
		return nil, err
	}
	doc, err := in.docs.InsertDocument(ctx, name, token)
	if err != nil {
		return nil, err
	}
	in.logger.Debug("document stored",
		zap.String("filename", name),
		zap.Int64("id", doc.ID),
		zap.Int("chars", len([]rune(text))))
	return doc, nil
}

// UploadDirectory uploads every regular file directly inside dir whose extension
// is in allowedExts (all supported types when empty), as if each had been sent
// through Upload. Per-file failures are collected and returned together; n counts
// stored documents.
func (in *Ingester) UploadDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	if len(allowedExts) == 0 {
		allowedExts = models.SupportedExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: read directory: %w", models.ErrFileIO, err)
	}
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if !e.Type().IsRegular() || !ExtensionAllowed(filepath.Ext(e.Name()), allowedExts) {
			continue
		}
		if _, uploadErr := in.UploadPath(ctx, filepath.Join(dir, e.Name())); uploadErr != nil {
			errs = append(errs, uploadErr)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// UploadPath uploads the file at path under its base name. A file already in
// the upload directory is ingested in place.
func (in *Ingester) UploadPath(ctx context.Context, path string) (*models.Document, error) {
	if abs, err := filepath.Abs(path); err == nil {
		if uploadDir, err := filepath.Abs(in.uploadDir); err == nil && filepath.Dir(abs) == uploadDir {
			return in.IngestFile(ctx, abs)
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", models.ErrFileIO, filepath.Base(path), err)
	}
	defer f.Close()
	return in.Upload(ctx, filepath.Base(path), f)
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and a leading dot.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

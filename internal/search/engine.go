// Package search provides the substring search over encrypted documents.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/internal/storage"
)

// Decrypter opens stored ciphertext. It returns "" when the text cannot be decrypted.
type Decrypter interface {
	Decrypt(ciphertext string) string
}

// Engine scans every stored document, decrypts it and matches the query as a
// case-insensitive substring. There is no index; cost is linear in the number of rows.
type Engine struct {
	docs   storage.DocumentStore
	cipher Decrypter
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for skipped-row diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine over docs using cipher to open each row.
func NewEngine(docs storage.DocumentStore, cipher Decrypter, opts ...Option) *Engine {
	e := &Engine{
		docs:   docs,
		cipher: cipher,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns (filename, plaintext) for every decryptable document whose text
// contains query, ignoring case. An empty query matches every decryptable document.
// Rows that fail to decrypt are skipped; a store failure aborts the search.
func (e *Engine) Search(ctx context.Context, query string) ([]*models.Match, error) {
	docs, err := e.docs.ScanDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	needle := strings.ToLower(query)
	matches := make([]*models.Match, 0)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := e.cipher.Decrypt(doc.Content)
		if text == "" {
			e.logger.Debug("skipping undecryptable document",
				zap.Int64("id", doc.ID),
				zap.String("filename", doc.Filename))
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			matches = append(matches, &models.Match{
				DocumentID: doc.ID,
				Filename:   doc.Filename,
				Text:       text,
			})
		}
	}
	e.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("scanned", len(docs)),
		zap.Int("matches", len(matches)))
	return matches, nil
}

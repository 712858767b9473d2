// Package storage defines persistence for encrypted documents and per-user query history.
package storage

import (
	"context"

	"github.com/hyperjump/docvault/internal/models"
)

// DocumentStore persists (filename, ciphertext) rows.
type DocumentStore interface {
	// InsertDocument stores one row and returns it with its assigned ID.
	InsertDocument(ctx context.Context, filename, ciphertext string) (*models.Document, error)
	// ScanDocuments returns every row in no particular order.
	ScanDocuments(ctx context.Context) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
}

// HistoryStore persists (user, query, response) rows.
type HistoryStore interface {
	InsertHistory(ctx context.Context, rec *models.HistoryRecord) error
	// ListHistory returns the user's records in insertion order.
	ListHistory(ctx context.Context, user string) ([]*models.HistoryRecord, error)
	CountHistory(ctx context.Context) (int64, error)
}

// Storage is the full persistence surface backed by one database.
type Storage interface {
	DocumentStore
	HistoryStore
	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docvault/internal/models"
)

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements Storage using SQLite. Every statement commits on its own.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT,
		content TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_history_user ON user_history(user);
	`
	_, err := db.Exec(schema)
	return err
}

// InsertDocument inserts a document row.
func (s *SQLiteStorage) InsertDocument(ctx context.Context, filename, ciphertext string) (*models.Document, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, content) VALUES (?, ?)`,
		filename, ciphertext,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert document: %w", models.ErrStorageWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: document id: %w", models.ErrStorageWrite, err)
	}
	return &models.Document{ID: id, Filename: filename, Content: ciphertext}, nil
}

// ScanDocuments reads the whole documents table.
func (s *SQLiteStorage) ScanDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filename, content FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("%w: scan documents: %w", models.ErrStorageRead, err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var filename sql.NullString
		if err := rows.Scan(&doc.ID, &filename, &doc.Content); err != nil {
			return nil, fmt.Errorf("%w: scan document row: %w", models.ErrStorageRead, err)
		}
		doc.Filename = filename.String
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan documents: %w", models.ErrStorageRead, err)
	}
	return docs, nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count documents: %w", models.ErrStorageRead, err)
	}
	return count, nil
}

// InsertHistory appends a history record and sets rec.ID.
func (s *SQLiteStorage) InsertHistory(ctx context.Context, rec *models.HistoryRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_history (user, query, response) VALUES (?, ?, ?)`,
		rec.User, rec.Query, rec.Response,
	)
	if err != nil {
		return fmt.Errorf("%w: insert history: %w", models.ErrStorageWrite, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// ListHistory returns all records for user ordered by ID.
func (s *SQLiteStorage) ListHistory(ctx context.Context, user string) ([]*models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user, query, response FROM user_history WHERE user = ? ORDER BY id`,
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", models.ErrStorageRead, err)
	}
	defer rows.Close()

	var recs []*models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.User, &rec.Query, &rec.Response); err != nil {
			return nil, fmt.Errorf("%w: scan history row: %w", models.ErrStorageRead, err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list history: %w", models.ErrStorageRead, err)
	}
	return recs, nil
}

// CountHistory returns the total number of history records across all users.
func (s *SQLiteStorage) CountHistory(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count history: %w", models.ErrStorageRead, err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

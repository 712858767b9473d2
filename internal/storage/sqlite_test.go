package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/hyperjump/docvault/internal/models"
)

func TestSQLiteStorage_Documents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "docs.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	first, err := store.InsertDocument(ctx, "a.txt", "cipher-a")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 {
		t.Error("ID should be assigned")
	}
	// Filenames are not unique.
	second, err := store.InsertDocument(ctx, "a.txt", "cipher-b")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Errorf("expected distinct IDs, both %d", first.ID)
	}

	docs, err := store.ScanDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	var contents []string
	for _, d := range docs {
		if d.Filename != "a.txt" {
			t.Errorf("filename: got %q", d.Filename)
		}
		contents = append(contents, d.Content)
	}
	sort.Strings(contents)
	if contents[0] != "cipher-a" || contents[1] != "cipher-b" {
		t.Errorf("contents: got %v", contents)
	}

	n, err := store.CountDocuments(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountDocuments: %v, %d", err, n)
	}
}

func TestSQLiteStorage_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.InsertDocument(ctx, "keep.txt", "c"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	n, _ := reopened.CountDocuments(ctx)
	if n != 1 {
		t.Errorf("expected row to survive reopen, got %d", n)
	}
}

func TestSQLiteStorage_History(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, rec := range []*models.HistoryRecord{
		{User: "alice", Query: "q1", Response: "r1"},
		{User: "bob", Query: "q2", Response: "r2"},
		{User: "alice", Query: "q3", Response: "r3"},
	} {
		if err := store.InsertHistory(ctx, rec); err != nil {
			t.Fatal(err)
		}
		if rec.ID == 0 {
			t.Error("ID should be set after insert")
		}
	}

	recs, err := store.ListHistory(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Query != "q1" || recs[1].Query != "q3" {
		t.Errorf("expected insertion order, got %q then %q", recs[0].Query, recs[1].Query)
	}

	none, err := store.ListHistory(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}

	n, err := store.CountHistory(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountHistory: %v, %d", err, n)
	}
}

func TestSQLiteStorage_ClosedDatabaseErrors(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
	ctx := context.Background()

	if _, err := store.InsertDocument(ctx, "x.txt", "c"); !errors.Is(err, models.ErrStorageWrite) {
		t.Errorf("InsertDocument: expected ErrStorageWrite, got %v", err)
	}
	if _, err := store.ScanDocuments(ctx); !errors.Is(err, models.ErrStorageRead) {
		t.Errorf("ScanDocuments: expected ErrStorageRead, got %v", err)
	}
	if err := store.InsertHistory(ctx, &models.HistoryRecord{User: "u"}); !errors.Is(err, models.ErrStorageWrite) {
		t.Errorf("InsertHistory: expected ErrStorageWrite, got %v", err)
	}
	if _, err := store.ListHistory(ctx, "u"); !errors.Is(err, models.ErrStorageRead) {
		t.Errorf("ListHistory: expected ErrStorageRead, got %v", err)
	}
}

package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestInbox_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	in := NewInbox(nil, []string{".txt"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := in.Directories()
	if len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := in.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(in.Directories()) != 0 {
		t.Errorf("after remove: %v", in.Directories())
	}
}

func TestInbox_DirectoryChangesBeforeStart(t *testing.T) {
	dir := t.TempDir()
	in := NewInbox(nil, []string{".txt"}, nil)

	if err := in.AddDirectory(dir, false); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AddDirectory before Start: got %v, want ErrNotStarted", err)
	}
	if err := in.RemoveDirectory(dir); !errors.Is(err, ErrNotStarted) {
		t.Errorf("RemoveDirectory before Start: got %v, want ErrNotStarted", err)
	}
	if len(in.Directories()) != 0 {
		t.Errorf("no directory should be recorded, got %v", in.Directories())
	}
}

func TestInbox_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	in := NewInbox([]string{dir}, []string{".txt"}, rec.add, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	target := filepath.Join(dir, "f.txt")
	f, err := os.Create(target)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		_, _ = f.WriteString("chunk ")
	}
	_ = f.Close()
	if err := os.WriteFile(filepath.Join(dir, "skip.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) >= 1 }) {
		t.Fatal("expected a callback for f.txt")
	}
	time.Sleep(200 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != target {
		t.Errorf("expected exactly one debounced callback for %s, got %v", target, got)
	}
}

func TestInbox_IgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	in := NewInbox([]string{dir}, nil, rec.add, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("directories must not be passed to the callback, got %v", got)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInbox_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{"a.txt": "hello", "ignore.xyz": "x"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	in := NewInbox([]string{dir}, []string{".txt"}, rec.add)
	in.SyncExistingFiles()

	got := rec.snapshot()
	if len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
		t.Errorf("expected one synced file a.txt, got %v", got)
	}
}

func TestInbox_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "drop")
	in := NewInbox([]string{root}, []string{".txt"}, nil)
	if err := in.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestInbox_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "present.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	in := NewInbox([]string{dir}, []string{".txt"}, rec.add)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- in.Run(ctx) }()

	if !waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) == 1 }) {
		t.Fatal("existing file should be synced on Run")
	}
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

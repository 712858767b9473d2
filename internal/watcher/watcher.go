// Package watcher watches inbox directories with fsnotify and hands each new or
// rewritten file to a callback after a debounce delay.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ErrNotStarted is returned when directories are changed before Start.
var ErrNotStarted = errors.New("inbox not started")

// Inbox watches the top level of one or more directories. Subdirectories are ignored.
type Inbox struct {
	roots       []string
	extensions  []string
	onFile      func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets a logger for debug output (events, syncs, directory changes).
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithDebounce overrides the delay between the last event for a file and onFile.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) {
		if d > 0 {
			in.debounce = d
		}
	}
}

// NewInbox creates an inbox watcher over roots. Only files whose extension is in
// extensions (all files when empty) are passed to onFile.
func NewInbox(roots []string, extensions []string, onFile func(path string), opts ...Option) *Inbox {
	in := &Inbox{
		extensions:  extensions,
		onFile:      onFile,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			in.roots = append(in.roots, abs)
		}
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Start begins watching. It returns once the roots are registered; events are
// handled in a goroutine until ctx is cancelled or Stop is called.
// Missing roots are created.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	if in.started {
		in.mu.Unlock()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		in.mu.Unlock()
		return err
	}
	in.watcher = w
	in.started = true
	in.logger.Debug("inbox starting", zap.Strings("roots", in.roots), zap.Strings("extensions", in.extensions))
	for _, root := range in.roots {
		if err := in.addRootLocked(root); err != nil {
			_ = in.watcher.Close()
			in.watcher = nil
			in.started = false
			in.mu.Unlock()
			return err
		}
	}
	in.mu.Unlock()
	go in.run(ctx, w)
	return nil
}

// Run starts the inbox, uploads files already present, and blocks until ctx is done.
func (in *Inbox) Run(ctx context.Context) error {
	if err := in.Start(ctx); err != nil {
		return err
	}
	in.SyncExistingFiles()
	select {
	case <-ctx.Done():
	case <-in.done:
	}
	in.Stop()
	return nil
}

func (in *Inbox) run(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			in.Stop()
			return
		case <-in.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			in.handleEvent(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			in.logger.Debug("inbox watch error", zap.Error(err))
		}
	}
}

func (in *Inbox) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !in.isRootChild(path) {
		return
	}
	in.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		if matchExtension(path, in.extensions) {
			in.debounceFile(path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		in.cancelDebounce(path)
	}
}

// isRootChild reports whether path sits directly inside a watched root.
func (in *Inbox) isRootChild(path string) bool {
	parent := filepath.Dir(filepath.Clean(path))
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, root := range in.roots {
		if filepath.Clean(root) == parent {
			return true
		}
	}
	return false
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	extNorm := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == extNorm {
			return true
		}
	}
	return false
}

func (in *Inbox) debounceFile(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.debounceMap[path]; ok {
		t.Stop()
	}
	in.debounceMap[path] = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		delete(in.debounceMap, path)
		in.mu.Unlock()
		in.logger.Debug("inbox file settled", zap.String("path", path))
		if in.onFile != nil {
			in.onFile(path)
		}
	})
}

func (in *Inbox) cancelDebounce(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.debounceMap[path]; ok {
		t.Stop()
		delete(in.debounceMap, path)
	}
}

// AddDirectory adds a root to watch and optionally hands its existing files to onFile.
// It returns ErrNotStarted before Start.
func (in *Inbox) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.watcher == nil {
		return ErrNotStarted
	}
	for _, r := range in.roots {
		if filepath.Clean(r) == abs {
			return nil
		}
	}
	if err := in.addRootLocked(abs); err != nil {
		return err
	}
	in.roots = append(in.roots, abs)
	in.logger.Debug("inbox directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go in.syncDirectory(abs)
	}
	return nil
}

func (in *Inbox) addRootLocked(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	return in.watcher.Add(root)
}

func (in *Inbox) syncDirectory(root string) {
	in.mu.Lock()
	exts := append([]string(nil), in.extensions...)
	in.mu.Unlock()
	entries, err := os.ReadDir(root)
	if err != nil {
		in.logger.Debug("inbox sync failed", zap.String("root", root), zap.Error(err))
		return
	}
	in.logger.Debug("inbox syncing directory", zap.String("root", root), zap.Int("entries", len(entries)))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if matchExtension(path, exts) && in.onFile != nil {
			in.onFile(path)
		}
	}
}

// RemoveDirectory stops watching root. Documents already stored are kept.
// It returns ErrNotStarted before Start.
func (in *Inbox) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.watcher == nil {
		return ErrNotStarted
	}
	for i, r := range in.roots {
		if filepath.Clean(r) != abs {
			continue
		}
		_ = in.watcher.Remove(abs)
		in.roots = append(in.roots[:i], in.roots[i+1:]...)
		in.logger.Debug("inbox directory removed", zap.String("path", abs))
		return nil
	}
	return nil
}

// Directories returns a copy of the watched roots.
func (in *Inbox) Directories() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.roots...)
}

// SyncExistingFiles hands every matching file already in the roots to onFile.
func (in *Inbox) SyncExistingFiles() {
	for _, root := range in.Directories() {
		in.syncDirectory(root)
	}
}

// Stop stops watching and cancels pending debounced files.
func (in *Inbox) Stop() {
	in.mu.Lock()
	if !in.started || in.watcher == nil {
		in.mu.Unlock()
		return
	}
	for path, t := range in.debounceMap {
		t.Stop()
		delete(in.debounceMap, path)
	}
	_ = in.watcher.Close()
	in.watcher = nil
	in.started = false
	in.mu.Unlock()
	in.stopOnce.Do(func() { close(in.done) })
}

package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/signature"
)

// DefaultDebounce is how long a file must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher synchronizes notebooks under a root directory as they change.
type Watcher struct {
	root      string
	engine    *engine.Engine
	debounce  time.Duration
	signature signature.Provider
	logger    *slog.Logger
	onSync    func(FileResult, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSignature tracks the origin signature on every processed file.
func WithSignature(p signature.Provider) Option {
	return func(w *Watcher) { w.signature = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// OnSync registers a callback invoked after each processed file.
func OnSync(fn func(FileResult, error)) Option {
	return func(w *Watcher) { w.onSync = fn }
}

// New creates a Watcher over root.
func New(root string, e *engine.Engine, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		engine:   e,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Files are processed one at a time on
// the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watching", "root", w.root, "debounce", w.debounce)

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, event.Name); err != nil {
						w.logger.Warn("watch directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".ipynb" {
				continue
			}

			path := event.Name
			if t, ok := timers[path]; ok {
				t.Reset(w.debounce)
				continue
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			w.process(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	display, err := filepath.Rel(w.root, path)
	if err != nil {
		display = path
	}

	res, err := SyncFile(ctx, w.engine, path, filepath.ToSlash(display), w.signature)
	switch {
	case err != nil:
		w.logger.Warn("synchronize failed", "path", path, "error", err)
	case res.Changed:
		w.logger.Info("synchronized", "path", path, "minted", res.Minted, "history_recorded", res.HistoryRecorded, "branched", res.Branched)
	default:
		w.logger.Debug("unchanged", "path", path)
	}
	if w.onSync != nil {
		w.onSync(res, err)
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports hidden entries, which covers .ipynb_checkpoints and
// editor swap files.
func ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

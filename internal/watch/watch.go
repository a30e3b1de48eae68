// Package watch rebuilds the call graph whenever C sources under a tree change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/cgraph/internal/lang"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc performs one full build. It is never called concurrently.
type RebuildFunc func(ctx context.Context) error

// Options tunes a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher turns bursts of file events into single rebuilds.
type Watcher struct {
	root    string
	opts    Options
	rebuild RebuildFunc
	fs      *fsnotify.Watcher
}

var skipDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// New watches every directory under root. Directories created later are
// picked up as they appear.
func New(root string, opts Options, rebuild RebuildFunc) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{root: root, opts: opts, rebuild: rebuild, fs: fw}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run processes events until ctx is canceled or the watcher is closed.
// A failed rebuild is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	return w.run(ctx, w.fs.Events, w.fs.Errors)
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.opts.Logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.opts.Logger.Error("rebuild failed", "error", err)
				continue
			}
			w.opts.Logger.Info("rebuilt call graph", "elapsed", time.Since(start))
		}
	}
}

// relevant reports whether ev may change the graph. New directories are
// added to the watch list as a side effect.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if skipDirs[fi.Name()] {
				return false
			}
			if err := w.addTree(ev.Name); err != nil {
				w.opts.Logger.Warn("cannot watch directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}
	return lang.ForExtension(filepath.Ext(ev.Name)) != ""
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

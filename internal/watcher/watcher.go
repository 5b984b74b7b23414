// Package watcher monitors registered course folders for changes so
// the library can rescan them without user intervention. Change bursts
// (a course being copied in file by file) are debounced per course
// root; the consumer sees one Changed event per settled burst.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event signals that a watched course root changed and has settled.
type Event struct {
	// Root is the course folder the change belongs to.
	Root string
	// At is when the burst settled.
	At time.Time
}

// Watcher watches course roots with fsnotify and debounces change
// bursts per root.
type Watcher struct {
	logger *slog.Logger
	opts   Options
	fsw    *fsnotify.Watcher

	mu     sync.Mutex
	roots  map[string]struct{}
	timers map[string]*time.Timer

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a course folder watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger: logger,
		opts:   opts,
		fsw:    fsw,
		roots:  make(map[string]struct{}),
		timers: make(map[string]*time.Timer),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}, nil
}

// Add watches a course root and its section directories. Courses
// follow a two-level convention, so one level of subdirectories is
// enough.
func (w *Watcher) Add(root string) error {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", root)
	}

	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read watch root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(root, e.Name())
		if w.opts.shouldIgnore(sub) {
			continue
		}
		if err := w.fsw.Add(sub); err != nil {
			w.logger.Warn("watch section directory", "path", sub, "error", err)
		}
	}

	w.mu.Lock()
	w.roots[root] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("watching course root", "path", root)
	return nil
}

// Remove stops watching a course root.
func (w *Watcher) Remove(root string) {
	root = filepath.Clean(root)

	w.mu.Lock()
	delete(w.roots, root)
	if timer, ok := w.timers[root]; ok {
		timer.Stop()
		delete(w.timers, root)
	}
	w.mu.Unlock()

	// fsnotify forgets removed directories on its own; removing the
	// root watch is enough for the common case.
	if err := w.fsw.Remove(root); err != nil {
		w.logger.Debug("remove watch", "path", root, "error", err)
	}
}

// Events returns the channel of settled change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start processes filesystem events until the context is cancelled.
// It blocks; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		}
	}
}

// Close stops the watcher and releases resources. Safe to call more
// than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for root, timer := range w.timers {
			timer.Stop()
			delete(w.timers, root)
		}
		w.mu.Unlock()

		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.opts.shouldIgnore(ev.Name) {
		return
	}

	root, ok := w.rootFor(ev.Name)
	if !ok {
		return
	}

	// A new section directory needs its own watch before files copied
	// into it are visible.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
		}
	}

	w.logger.Debug("course folder changed", "root", root, "path", ev.Name, "op", ev.Op.String())
	w.touch(root)
}

// touch resets the debounce timer for a root, emitting an event once
// the burst settles.
func (w *Watcher) touch(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[root]; ok {
		timer.Reset(w.opts.Debounce)
		return
	}

	w.timers[root] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, root)
		w.mu.Unlock()

		select {
		case w.events <- Event{Root: root, At: time.Now()}:
		case <-w.done:
		}
	})
}

// rootFor maps an event path to the watched course root containing it.
func (w *Watcher) rootFor(path string) (string, bool) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	for root := range w.roots {
		if path == root {
			return root, true
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && filepath.IsLocal(rel) {
			return root, true
		}
	}
	return "", false
}

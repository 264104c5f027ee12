// Package watch reports changes to a fixed set of log files.
//
// Directories containing the files are watched rather than the files
// themselves, so editors and rotators that replace a file by rename are
// still seen. Bursts of events for the same file are debounced into a
// single Event.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// Event signals that the file at Path changed.
type Event struct {
	Path string
}

// Options configures a Watcher.
type Options struct {
	Paths    []string      // Files to watch
	Debounce time.Duration // Quiet period before an Event is emitted
	Logger   *slog.Logger
}

// Watcher monitors files for changes.
type Watcher struct {
	opts    Options
	files   map[string]bool
	dirs    []string
	events  chan Event
	ready   chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a Watcher for opts.Paths. Paths are resolved to absolute
// form; Event.Path carries the absolute path.
func New(opts Options) (*Watcher, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("watch: no paths given")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Watcher{
		opts:   opts,
		files:  make(map[string]bool, len(opts.Paths)),
		events: make(chan Event, len(opts.Paths)),
		ready:  make(chan struct{}),
	}
	seen := make(map[string]bool)
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	return w, nil
}

// Events returns the channel Events are delivered on. It is closed when
// Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Ready is closed once Run has registered every directory.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	if err := w.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer w.watcher.Close()
	close(w.ready)

	return w.watch(ctx)
}

func (w *Watcher) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.watcher = watcher
	return nil
}

func (w *Watcher) watch(ctx context.Context) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.opts.Logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if err := w.flush(ctx, pending); err != nil {
				return nil
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !w.files[filepath.Clean(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// flush emits one Event per pending path in sorted order and clears pending.
func (w *Watcher) flush(ctx context.Context, pending map[string]bool) error {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	clear(pending)

	for _, p := range paths {
		select {
		case w.events <- Event{Path: p}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

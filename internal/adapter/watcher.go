package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the default debounce interval for file events.
// Editors fire several events per save; one timer coalesces them.
const debounceDefault = 200 * time.Millisecond

// ScriptWatcher watches a directory for new or changed runner scripts and
// invokes a handler per path. Run blocks until the context is cancelled.
type ScriptWatcher interface {
	Run(ctx context.Context) error
}

// FSNotifyWatcher watches a directory using fsnotify.
type FSNotifyWatcher struct {
	dir      string
	handler  func(path string)
	debounce time.Duration
}

// NewFSNotifyWatcher creates a watcher for the script directory.
func NewFSNotifyWatcher(dir string, handler func(path string)) *FSNotifyWatcher {
	return &FSNotifyWatcher{
		dir:      dir,
		handler:  handler,
		debounce: debounceDefault,
	}
}

// Run watches the directory for created or modified .ps1 files. Events
// accumulate under a single debounce timer; when it fires, all pending
// paths flush to the handler.
func (w *FSNotifyWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	var mu sync.Mutex

	pending := make(map[string]bool)

	flush := func() {
		mu.Lock()

		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}

		pending = make(map[string]bool)
		mu.Unlock()

		for _, p := range batch {
			select {
			case <-ctx.Done():
				return
			default:
				w.handler(p)
			}
		}
	}

	// Single debounce timer, reset on each event. Initialized as
	// stopped; the first event starts it.
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	defer func() {
		debounceTimer.Stop()
		flush()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if !IsScriptFile(event.Name) {
				continue
			}

			mu.Lock()
			pending[event.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}

			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			_ = err
		}
	}
}

// PollingWatcher watches a directory using modification-time polling.
// Used when fsnotify is unavailable (e.g. NFS mounts) or when an explicit
// poll interval is requested.
type PollingWatcher struct {
	dir      string
	handler  func(path string)
	interval time.Duration
	seen     map[string]time.Time
}

// NewPollingWatcher creates a polling-based watcher.
func NewPollingWatcher(dir string, handler func(path string), interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		dir:      dir,
		handler:  handler,
		interval: interval,
		seen:     make(map[string]time.Time),
	}
}

// Run polls the directory. Blocks until ctx is cancelled. The first scan
// primes the seen map without firing the handler, so only scripts that
// change after the watch starts are regenerated.
func (w *PollingWatcher) Run(ctx context.Context) error {
	w.scan(true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan(false)
		}
	}
}

func (w *PollingWatcher) scan(prime bool) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		path := filepath.Join(w.dir, e.Name())
		if !IsScriptFile(path) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		last, known := w.seen[path]
		w.seen[path] = info.ModTime()

		if prime {
			continue
		}

		if !known || info.ModTime().After(last) {
			w.handler(path)
		}
	}
}

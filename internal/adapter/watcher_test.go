package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *pathRecorder) handle(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths = append(r.paths, path)
}

func (r *pathRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.paths...)
}

func (r *pathRecorder) waitFor(t *testing.T, want int, timeout time.Duration) []string {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= want {
			return got
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("handler not called %d time(s) within %s (got %v)", want, timeout, r.snapshot())

	return nil
}

func TestPollingWatcher_FirstScanPrimesWithoutFiring(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre.ps1"), []byte("x"), 0o644))

	recorder := &pathRecorder{}
	watcher := NewPollingWatcher(dir, recorder.handle, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, watcher.Run(ctx))

	// pre.ps1 existed before the watch started, so it never fires.
	assert.Empty(t, recorder.snapshot())
}

func TestPollingWatcher_FiresForNewScript(t *testing.T) {
	dir := t.TempDir()

	recorder := &pathRecorder{}
	watcher := NewPollingWatcher(dir, recorder.handle, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Let the priming scan complete before creating the script.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.ps1"), []byte("x"), 0o644))

	paths := recorder.waitFor(t, 1, 2*time.Second)
	assert.Contains(t, paths[0], "new.ps1")

	cancel()
	require.NoError(t, <-done)
}

func TestPollingWatcher_IgnoresGeneratedTests(t *testing.T) {
	dir := t.TempDir()

	recorder := &pathRecorder{}
	watcher := NewPollingWatcher(dir, recorder.handle, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "x.Tests.ps1"), []byte("x"), 0o644)
	}()

	require.NoError(t, watcher.Run(ctx))

	assert.Empty(t, recorder.snapshot())
}

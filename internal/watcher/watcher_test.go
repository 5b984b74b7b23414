package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()

	w, err := New(slog.New(slog.DiscardHandler), Options{
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	return w
}

func waitForEvent(t *testing.T, w *Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatcher_EmitsOnChange(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Go Basics")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "1. Intro"), 0755))

	w := newTestWatcher(t)
	require.NoError(t, w.Add(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "1. Intro", "1. Welcome.mp4"), []byte("x"), 0644))

	ev, ok := waitForEvent(t, w, 2*time.Second)
	require.True(t, ok, "expected a change event")
	assert.Equal(t, root, ev.Root)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Go Basics")
	section := filepath.Join(root, "1. Intro")
	require.NoError(t, os.MkdirAll(section, 0755))

	w := newTestWatcher(t)
	require.NoError(t, w.Add(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// A burst of writes inside the debounce window.
	for i := range 5 {
		name := filepath.Join(section, string(rune('a'+i))+".mp4")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	_, ok := waitForEvent(t, w, 2*time.Second)
	require.True(t, ok, "expected a change event")

	// The burst settles into a single event.
	_, extra := waitForEvent(t, w, 150*time.Millisecond)
	assert.False(t, extra, "burst should coalesce into one event")
}

func TestWatcher_IgnoresJunkFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Go Basics")
	require.NoError(t, os.MkdirAll(root, 0755))

	w := newTestWatcher(t)
	require.NoError(t, w.Add(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".DS_Store"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "partial.tmp"), []byte("x"), 0644))

	_, ok := waitForEvent(t, w, 200*time.Millisecond)
	assert.False(t, ok, "junk files should not trigger events")
}

func TestWatcher_Remove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Go Basics")
	require.NoError(t, os.MkdirAll(root, 0755))

	w := newTestWatcher(t)
	require.NoError(t, w.Add(root))
	w.Remove(root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "1. Welcome.mp4"), []byte("x"), 0644))

	_, ok := waitForEvent(t, w, 200*time.Millisecond)
	assert.False(t, ok, "removed root should not trigger events")
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := New(slog.New(slog.DiscardHandler), Options{})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcher_AddRejectsMissingPath(t *testing.T) {
	w := newTestWatcher(t)
	err := w.Add(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

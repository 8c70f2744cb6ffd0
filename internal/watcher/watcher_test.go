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

func startWatcher(t *testing.T, opts Options) (*Watcher, string) {
	t.Helper()

	w, err := New(slog.New(slog.DiscardHandler), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx) //nolint:errcheck // Test goroutine

	return w, dir
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()

	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestNew(t *testing.T) {
	w, err := New(nil, Options{})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "Stop should be idempotent")
}

func TestWatcher_WatchMissingPath(t *testing.T) {
	w, err := New(nil, Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_FileCreation(t *testing.T) {
	w, dir := startWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	path := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	event := nextEvent(t, w)
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, int64(2), event.Size)
}

func TestWatcher_ModifiedAfterAdded(t *testing.T) {
	w, dir := startWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	path := filepath.Join(dir, "likes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	require.Equal(t, EventAdded, nextEvent(t, w).Type)

	require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o644))

	event := nextEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, int64(4), event.Size)
}

func TestWatcher_FileDeletion(t *testing.T) {
	w, dir := startWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	path := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	require.Equal(t, EventAdded, nextEvent(t, w).Type)

	require.NoError(t, os.Remove(path))

	event := nextEvent(t, w)
	assert.Equal(t, EventRemoved, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_SettlesChunkedWrites(t *testing.T) {
	w, dir := startWatcher(t, Options{SettleDelay: 100 * time.Millisecond})

	path := filepath.Join(dir, "history.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	for range 5 {
		_, err := f.WriteString(`[{"url":"x"}]`)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	event := nextEvent(t, w)
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, int64(5*len(`[{"url":"x"}]`)), event.Size)

	select {
	case extra := <-w.Events():
		t.Fatalf("expected a single event, got %+v", extra)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestWatcher_IgnoreHidden(t *testing.T) {
	w, dir := startWatcher(t, Options{SettleDelay: 50 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("secret"), 0o644))
	normal := filepath.Join(dir, "normal.json")
	require.NoError(t, os.WriteFile(normal, []byte("[]"), 0o644))

	assert.Equal(t, normal, nextEvent(t, w).Path)

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event for hidden file: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}

package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/domain"
)

type importCall struct {
	userID   string
	filename string
	raw      string
}

type fakeImporter struct {
	mu    sync.Mutex
	calls []importCall
	err   error
}

func (f *fakeImporter) ImportFile(_ context.Context, userID, filename string, raw []byte) (*domain.ImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, importCall{userID: userID, filename: filename, raw: string(raw)})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ImportResult{ImportID: "imp-1", ContentType: domain.ContentTypeHistory}, nil
}

func (f *fakeImporter) Calls() []importCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]importCall(nil), f.calls...)
}

func newTestInbox(t *testing.T, importer Importer) (*Inbox, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "inbox")
	in, err := NewInbox(InboxOptions{Dir: dir, UserID: "user-1", Debounce: 50 * time.Millisecond}, importer, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	return in, dir
}

func TestNewInbox_RequiresDirAndUser(t *testing.T) {
	_, err := NewInbox(InboxOptions{UserID: "user-1"}, &fakeImporter{}, nil)
	assert.Error(t, err)

	_, err = NewInbox(InboxOptions{Dir: t.TempDir()}, &fakeImporter{}, nil)
	assert.Error(t, err)
}

func TestNewInbox_CreatesDirectory(t *testing.T) {
	_, dir := newTestInbox(t, &fakeImporter{})

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInbox_ImportPath_RenamesFile(t *testing.T) {
	importer := &fakeImporter{}
	in, dir := newTestInbox(t, importer)

	path := filepath.Join(dir, "watch-later.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	result, err := in.ImportPath(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "imp-1", result.ImportID)
	assert.Equal(t, []importCall{{userID: "user-1", filename: "watch-later.json", raw: "[]"}}, importer.Calls())
	assert.NoFileExists(t, path)
	assert.FileExists(t, path+ImportedSuffix)
}

func TestInbox_ImportPath_FailureLeavesFile(t *testing.T) {
	importer := &fakeImporter{err: errors.New("malformed input")}
	in, dir := newTestInbox(t, importer)

	path := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := in.ImportPath(context.Background(), path)

	assert.Error(t, err)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+ImportedSuffix)
}

func TestInbox_ImportPath_MissingFile(t *testing.T) {
	importer := &fakeImporter{}
	in, dir := newTestInbox(t, importer)

	result, err := in.ImportPath(context.Background(), filepath.Join(dir, "gone.json"))

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, importer.Calls())
}

func TestInbox_Run_ImportsWaitingAndNewFiles(t *testing.T) {
	importer := &fakeImporter{}
	in, dir := newTestInbox(t, importer)

	waiting := filepath.Join(dir, "likes.json")
	require.NoError(t, os.WriteFile(waiting, []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(waiting + ImportedSuffix)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	dropped := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(dropped, []byte(`[]`), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(dropped + ImportedSuffix)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	var names []string
	for _, c := range importer.Calls() {
		names = append(names, c.filename)
	}
	assert.ElementsMatch(t, []string{"likes.json", "history.json"}, names)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestIsExport(t *testing.T) {
	assert.True(t, isExport("/inbox/history.json"))
	assert.True(t, isExport("LIKES.JSON"))
	assert.False(t, isExport("/inbox/history.json.imported"))
	assert.False(t, isExport("/inbox/.history.json"))
	assert.False(t, isExport("/inbox/notes.txt"))
}

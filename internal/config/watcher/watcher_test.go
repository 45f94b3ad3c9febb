package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfold.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := New(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	var c collector
	w.OnChange(c.handle)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))

	require.Eventually(t, func() bool { return len(c.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	got := c.snapshot()[0]
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, got.Path)
	assert.NotEqual(t, OpRemove, got.Op)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfold.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := New(WithDebounce(0))
	require.NoError(t, err)
	defer w.Close()

	var c collector
	w.OnChange(c.handle)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, c.snapshot())
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfold.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := New(WithDebounce(150 * time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	var c collector
	w.OnChange(c.handle)
	require.NoError(t, w.Watch(path))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, c.snapshot(), 1)
}

func TestWatcher_Close(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.NoError(t, w.Watch(filepath.Join(t.TempDir(), "x.toml")))
	assert.Len(t, w.WatchedFiles(), 1)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch("y.toml"), ErrWatcherClosed)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, OpWrite, coalesce(OpRemove, OpCreate))
	assert.Equal(t, OpRemove, coalesce(OpWrite, OpRemove))
	assert.Equal(t, OpCreate, coalesce(OpCreate, OpWrite))
	assert.Equal(t, OpWrite, coalesce(OpWrite, OpWrite))
	assert.Equal(t, "remove", OpRemove.String())
}

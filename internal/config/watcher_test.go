package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func watcherConfig(timeout int) string {
	return fmt.Sprintf(`{
  "servers": {"llm": {"type": "ollama", "url": "http://localhost:11434", "timeout": %d}},
  "default_server": "llm"
}`, timeout)
}

func TestWatcherSwapsOnValidChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(watcherConfig(10)), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	handle := NewHandle(cfg)

	w, err := WatchFile(path, handle, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(watcherConfig(20)), 0o644))

	require.Eventually(t, func() bool {
		b, _ := handle.Snapshot().Backend("llm")
		return b.TimeoutSeconds == 20
	}, 3*time.Second, 10*time.Millisecond, "watcher should swap in the new snapshot")
}

func TestWatcherKeepsSnapshotOnBrokenEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(watcherConfig(10)), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	handle := NewHandle(cfg)

	w, err := WatchFile(path, handle, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"servers": {`), 0o644))

	// Give the watcher time to observe the broken write, then confirm the
	// last good snapshot is still being served.
	time.Sleep(300 * time.Millisecond)
	b, ok := handle.Snapshot().Backend("llm")
	require.True(t, ok)
	assert.Equal(t, 10, b.TimeoutSeconds)

	// A subsequent valid write still lands.
	require.NoError(t, os.WriteFile(path, []byte(watcherConfig(30)), 0o644))
	require.Eventually(t, func() bool {
		b, _ := handle.Snapshot().Backend("llm")
		return b.TimeoutSeconds == 30
	}, 3*time.Second, 10*time.Millisecond)
}

func TestHandleSwapIsObservedByReaders(t *testing.T) {
	first := &RoutingConfig{DefaultBackend: "a"}
	second := &RoutingConfig{DefaultBackend: "b"}

	handle := NewHandle(first)
	assert.Equal(t, "a", handle.Snapshot().DefaultBackend)

	handle.Swap(second)
	assert.Equal(t, "b", handle.Snapshot().DefaultBackend)
}

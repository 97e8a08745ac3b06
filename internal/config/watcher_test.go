package config

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

func TestWatcher_ReconcilesOnExternalEdit(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	initialDoc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	initialCfg, err := initialDoc.Typed()
	require.NoError(t, err)

	var mu sync.Mutex
	var received *Delta

	onDelta := func(_ *models.AppConfig, delta Delta) {
		mu.Lock()
		defer mu.Unlock()
		d := delta
		received = &d
	}

	w, err := NewWatcher(path, initialCfg, logger.NewNop(), onDelta)
	require.NoError(t, err)

	stopCh := make(chan struct{})
	defer close(stopCh)

	go w.Run(stopCh)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`
[server]
host = "127.0.0.1"
port = 8080
`), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received != nil
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received.Removed, 1)
	require.Equal(t, "a", received.Removed[0].ID)
}

func TestWatcher_HandleEvent_SkipsWhileWriteInProgress(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	initialDoc, err := LoadDocument([]byte(sampleTOML))
	require.NoError(t, err)

	initialCfg, err := initialDoc.Typed()
	require.NoError(t, err)

	var calls int

	w, err := NewWatcher(path, initialCfg, logger.NewNop(), func(_ *models.AppConfig, _ Delta) {
		calls++
	})
	require.NoError(t, err)

	writeInProgress.Store(true)
	defer writeInProgress.Store(false)

	stopCh := make(chan struct{})
	close(stopCh)

	w.handleEvent(stopCh)

	require.Equal(t, 0, calls, "no reconcile runs while write_in_progress is set")
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAL_AppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := openWAL(dir)
	require.NoError(t, err)

	require.NoError(t, w.Append([]byte("key-a"), 10, 1.5))
	require.NoError(t, w.Append([]byte("key-b"), 20, -2.5))
	require.NoError(t, w.Close())

	records, err := replayWAL(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "key-a", string(records[0].key))
	assert.Equal(t, int64(10), records[0].ts)
	assert.Equal(t, 1.5, records[0].val)

	assert.Equal(t, "key-b", string(records[1].key))
	assert.Equal(t, int64(20), records[1].ts)
	assert.Equal(t, -2.5, records[1].val)
}

func TestReplayWAL_NoSegments(t *testing.T) {
	dir := t.TempDir()

	records, err := replayWAL(dir)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClearWAL_RemovesSegments(t *testing.T) {
	dir := t.TempDir()

	w, err := openWAL(dir)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("key"), 1, 1))
	require.NoError(t, w.Close())

	require.NoError(t, clearWAL(dir))

	records, err := replayWAL(dir)
	require.NoError(t, err)
	assert.Empty(t, records)
}

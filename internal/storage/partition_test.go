package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/models"
)

func TestSealAndLoadPartition_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	key := EncodeSeriesKey(models.MetricPingLatency, []models.Label{
		{Name: models.LabelTargetID, Value: "t1"},
	})

	entries := map[string]*seriesEntry{
		string(key): {
			labels: []models.Label{{Name: models.LabelTargetID, Value: "t1"}},
			points: []Point{
				{Timestamp: 100, Value: 1.5},
				{Timestamp: 200, Value: 2.5},
			},
		},
	}

	partitionDir, err := sealPartition(dir, entries)
	require.NoError(t, err)
	require.NotEmpty(t, partitionDir)

	loaded, err := loadPartition(partitionDir)
	require.NoError(t, err)

	entry, ok := loaded[string(key)]
	require.True(t, ok)
	assert.Equal(t, entries[string(key)].points, entry.points)
}

func TestSealPartition_Empty(t *testing.T) {
	dir := t.TempDir()

	partitionDir, err := sealPartition(dir, map[string]*seriesEntry{})
	require.NoError(t, err)
	assert.Empty(t, partitionDir)
}

func TestEncodeDecodePoints_RoundTrip(t *testing.T) {
	points := []Point{
		{Timestamp: 1, Value: 0.1},
		{Timestamp: 2, Value: -3.4},
		{Timestamp: 3, Value: 0},
	}

	data, minTS, maxTS := encodePoints(points)
	assert.Equal(t, int64(1), minTS)
	assert.Equal(t, int64(3), maxTS)

	decoded := decodePoints(data)
	assert.Equal(t, points, decoded)
}

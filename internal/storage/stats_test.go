package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

func TestReadStats_AggregatesAcrossPartitions(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileStore(dir, logger.NewNop())
	require.NoError(t, err)

	labels := []models.Label{{Name: models.LabelTargetID, Value: "t1"}}
	require.NoError(t, s.Insert(models.MetricRow{MetricName: models.MetricPingLatency, Labels: labels, Timestamp: 10, Value: 1}))
	require.NoError(t, s.seal())
	require.NoError(t, s.Insert(models.MetricRow{MetricName: models.MetricPingLatency, Labels: labels, Timestamp: 20, Value: 2}))
	require.NoError(t, s.seal())
	require.NoError(t, s.Close())

	stats, err := ReadStats(dir, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, stats.Targets, 1)

	assert.Equal(t, "t1", stats.Targets[0].TargetID)
	assert.Equal(t, int64(2), stats.Targets[0].NumDataPoints)
	assert.Equal(t, int64(10), stats.Targets[0].MinTimestamp)
	assert.Equal(t, int64(20), stats.Targets[0].MaxTimestamp)
	assert.Greater(t, stats.TotalDiskBytes, int64(0))
}

func TestReadStats_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	stats, err := ReadStats(dir, logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, stats.Targets)
	assert.Equal(t, int64(0), stats.TotalDiskBytes)
}

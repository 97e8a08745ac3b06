package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingwarden/pingwarden/internal/models"
)

func TestEncodeDecodeSeriesKey_RoundTrip(t *testing.T) {
	labels := []models.Label{
		{Name: models.LabelTarget, Value: "10.0.0.1"},
		{Name: models.LabelTargetID, Value: "abc-123"},
		{Name: models.LabelSequence, Value: "2"},
	}

	key := EncodeSeriesKey(models.MetricPingLatency, labels)

	name, decoded, err := DecodeSeriesKey(key)
	require.NoError(t, err)

	assert.Equal(t, models.MetricPingLatency, name)
	assert.Equal(t, labels, decoded)
}

func TestEncodeDecodeSeriesKey_NoLabels(t *testing.T) {
	key := EncodeSeriesKey("ping_failed", nil)

	name, labels, err := DecodeSeriesKey(key)
	require.NoError(t, err)

	assert.Equal(t, "ping_failed", name)
	assert.Empty(t, labels)
}

func TestDecodeSeriesKey_Truncated(t *testing.T) {
	_, _, err := DecodeSeriesKey([]byte{0x05, 0x00, 'a', 'b'})
	assert.Error(t, err)
}

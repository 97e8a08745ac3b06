package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
	"github.com/pingwarden/pingwarden/internal/storage"
)

func seedStore(t *testing.T) storage.Store {
	t.Helper()

	s, err := storage.NewFileStore(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	targetLabel := func(target string) []models.Label {
		return []models.Label{
			{Name: models.LabelTarget, Value: target},
			{Name: models.LabelTargetID, Value: target},
		}
	}

	latencies := []float64{10, 20, 30, 40}

	for i, v := range latencies {
		require.NoError(t, s.Insert(models.MetricRow{
			MetricName: models.MetricPingLatency,
			Labels:     targetLabel("T"),
			Timestamp:  int64(i) * 1000,
			Value:      v,
		}))
	}

	require.NoError(t, s.Insert(models.MetricRow{
		MetricName: models.MetricPingFailed,
		Labels:     targetLabel("T"),
		Timestamp:  3500,
		Value:      0,
	}))

	return s
}

func TestRaw_SortedAscendingAndFiltered(t *testing.T) {
	s := seedStore(t)

	points, stats, err := Raw(s, RawParams{Target: "T", From: 0, To: 100000, Metric: "all"})
	require.NoError(t, err)

	require.Len(t, points, 5)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 4, stats.SuccessfulCount)
	assert.Equal(t, 1, stats.FailedCount)

	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i-1].TimestampUnix, points[i].TimestampUnix)
	}
}

func TestRaw_LimitTruncates(t *testing.T) {
	s := seedStore(t)

	points, _, err := Raw(s, RawParams{From: 0, To: 100000, Metric: "latency", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestRaw_InvalidMetric(t *testing.T) {
	s := seedStore(t)

	_, _, err := Raw(s, RawParams{Metric: "bogus", From: 0, To: 1})
	assert.Error(t, err)
}

func TestAggregated_OneBucketScenario(t *testing.T) {
	s := seedStore(t)

	buckets, err := Aggregated(s, AggregatedParams{From: 0, To: 100000, Metric: "all", BucketSeconds: 60})
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	b := buckets[0]
	assert.Equal(t, 5, b.Count)
	assert.Equal(t, 4, b.SuccessfulCount)
	assert.Equal(t, 1, b.FailedCount)
	require.NotNil(t, b.Min)
	require.NotNil(t, b.Max)
	require.NotNil(t, b.Avg)
	assert.Equal(t, 10.0, *b.Min)
	assert.Equal(t, 40.0, *b.Max)
	assert.Equal(t, 25.0, *b.Avg)

	assert.LessOrEqual(t, *b.P50, *b.P75)
	assert.LessOrEqual(t, *b.P75, *b.P90)
	assert.LessOrEqual(t, *b.P90, *b.P95)
	assert.LessOrEqual(t, *b.P95, *b.P99)
}

func TestAggregated_InvalidBucket(t *testing.T) {
	s := seedStore(t)

	_, err := Aggregated(s, AggregatedParams{BucketSeconds: 0})
	assert.Error(t, err)

	_, err = Aggregated(s, AggregatedParams{BucketSeconds: -5})
	assert.Error(t, err)
}

func TestAggregated_NoSuccessfulPoints_NoPercentiles(t *testing.T) {
	s := seedStore(t)

	buckets, err := Aggregated(s, AggregatedParams{From: 0, To: 100000, Metric: "failed", BucketSeconds: 60})
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	assert.Nil(t, buckets[0].Min)
	assert.Nil(t, buckets[0].P50)
	assert.Equal(t, 1, buckets[0].FailedCount)
}

// TestRaw_StoreErrorSurfaces exercises the "store read error in a query"
// path from spec.md §7 against a mocked Store, rather than a real
// FileStore, since provoking a genuine on-disk failure isn't practical here.
func TestRaw_StoreErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockStore := storage.NewMockStore(ctrl)
	errBoom := errors.New("disk read failed")
	mockStore.EXPECT().SelectAll(models.MetricPingLatency, int64(0), int64(100)).Return(nil, errBoom)

	_, _, err := Raw(mockStore, RawParams{From: 0, To: 100, Metric: "latency"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}

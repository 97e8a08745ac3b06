package query

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pingwarden/pingwarden/internal/models"
	"github.com/pingwarden/pingwarden/internal/storage"
)

// Unknown is substituted for the target label when a series carries none,
// per spec.md §4.5.
const Unknown = "unknown"

// ErrInvalidInput marks a client-supplied query parameter as malformed
// (unknown metric, non-positive bucket width), distinguishing it from a
// store read failure so HTTP handlers can pick the right status code.
var ErrInvalidInput = errors.New("invalid query input")

// PingDataPoint is one sample in a raw query response.
type PingDataPoint struct {
	TimestampUnix int64     `json:"timestamp_unix"`
	Timestamp     time.Time `json:"timestamp"`
	Target        string    `json:"target"`
	Success       bool      `json:"success"`
	LatencyMs     *float64  `json:"latency_ms,omitempty"`
}

// RawStats summarizes a raw query's result set.
type RawStats struct {
	Count           int `json:"count"`
	SuccessfulCount int `json:"successful_count"`
	FailedCount     int `json:"failed_count"`
}

// RawParams is the resolved input to a raw-point query.
type RawParams struct {
	Target string
	From   int64
	To     int64
	Metric string // "latency", "failed", or "all"
	Limit  int
}

// metricsFor expands the metric=all shorthand into the underlying streams.
func metricsFor(metric string) ([]string, error) {
	switch metric {
	case "", "all":
		return []string{models.MetricPingLatency, models.MetricPingFailed}, nil
	case "latency":
		return []string{models.MetricPingLatency}, nil
	case "failed":
		return []string{models.MetricPingFailed}, nil
	default:
		return nil, fmt.Errorf("%w: invalid metric %q", ErrInvalidInput, metric)
	}
}

// Raw runs the raw-point query described in spec.md §4.5: scan every
// selected metric's series in [From, To], filter by Target, flatten to
// points, sort by timestamp ascending, and truncate to Limit.
func Raw(store storage.Store, p RawParams) ([]PingDataPoint, RawStats, error) {
	metricNames, err := metricsFor(p.Metric)
	if err != nil {
		return nil, RawStats{}, err
	}

	var points []PingDataPoint

	for _, metricName := range metricNames {
		seriesList, err := store.SelectAll(metricName, p.From, p.To)
		if err != nil {
			return nil, RawStats{}, fmt.Errorf("select %s: %w", metricName, err)
		}

		success := metricName == models.MetricPingLatency

		for _, series := range seriesList {
			target := targetLabel(series.Labels)

			if p.Target != "" && target != p.Target {
				continue
			}

			for _, pt := range series.Points {
				dp := PingDataPoint{
					TimestampUnix: pt.Timestamp,
					Timestamp:     time.UnixMilli(pt.Timestamp).UTC(),
					Target:        target,
					Success:       success,
				}

				if success {
					v := pt.Value
					dp.LatencyMs = &v
				}

				points = append(points, dp)
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].TimestampUnix < points[j].TimestampUnix })

	stats := RawStats{Count: len(points)}
	for _, pt := range points {
		if pt.Success {
			stats.SuccessfulCount++
		} else {
			stats.FailedCount++
		}
	}

	if p.Limit > 0 && len(points) > p.Limit {
		points = points[:p.Limit]
	}

	return points, stats, nil
}

func targetLabel(labels []models.Label) string {
	for _, l := range labels {
		if l.Name == models.LabelTarget {
			return l.Value
		}
	}

	return Unknown
}

// Bucket is one time-bucketed aggregate in an aggregated query response,
// per spec.md §4.5.
type Bucket struct {
	Target          string   `json:"target"`
	BucketStart     int64    `json:"bucket_start"`
	Count           int      `json:"count"`
	SuccessfulCount int      `json:"successful_count"`
	FailedCount     int      `json:"failed_count"`
	Min             *float64 `json:"min,omitempty"`
	Max             *float64 `json:"max,omitempty"`
	Avg             *float64 `json:"avg,omitempty"`
	P50             *float64 `json:"p50,omitempty"`
	P75             *float64 `json:"p75,omitempty"`
	P90             *float64 `json:"p90,omitempty"`
	P95             *float64 `json:"p95,omitempty"`
	P99             *float64 `json:"p99,omitempty"`
}

// AggregatedParams is the resolved input to a bucketed aggregate query.
type AggregatedParams struct {
	Target        string
	From          int64
	To            int64
	Metric        string
	BucketSeconds int64
}

type bucketKey struct {
	target string
	start  int64
}

type bucketAccum struct {
	count      int
	successful int
	failed     int
	latencies  []float64
}

// Aggregated runs the bucketed aggregate query described in spec.md §4.5.
func Aggregated(store storage.Store, p AggregatedParams) ([]Bucket, error) {
	if p.BucketSeconds <= 0 {
		return nil, fmt.Errorf("%w: bucket must be > 0", ErrInvalidInput)
	}

	metricNames, err := metricsFor(p.Metric)
	if err != nil {
		return nil, err
	}

	bucketMillis := p.BucketSeconds * 1000

	accum := make(map[bucketKey]*bucketAccum)
	var order []bucketKey

	for _, metricName := range metricNames {
		seriesList, err := store.SelectAll(metricName, p.From, p.To)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", metricName, err)
		}

		success := metricName == models.MetricPingLatency

		for _, series := range seriesList {
			target := targetLabel(series.Labels)

			if p.Target != "" && target != p.Target {
				continue
			}

			for _, pt := range series.Points {
				start := (pt.Timestamp / bucketMillis) * bucketMillis

				key := bucketKey{target: target, start: start}

				a, ok := accum[key]
				if !ok {
					a = &bucketAccum{}
					accum[key] = a
					order = append(order, key)
				}

				a.count++

				if success {
					a.successful++
					a.latencies = append(a.latencies, pt.Value)
				} else {
					a.failed++
				}
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].target != order[j].target {
			return order[i].target < order[j].target
		}

		return order[i].start < order[j].start
	})

	buckets := make([]Bucket, 0, len(order))

	for _, key := range order {
		a := accum[key]

		b := Bucket{
			Target:          key.target,
			BucketStart:     key.start,
			Count:           a.count,
			SuccessfulCount: a.successful,
			FailedCount:     a.failed,
		}

		if a.successful > 0 {
			sorted := append([]float64(nil), a.latencies...)
			sort.Float64s(sorted)

			minV, maxV, avgV := sorted[0], sorted[len(sorted)-1], average(sorted)
			b.Min = &minV
			b.Max = &maxV
			b.Avg = &avgV

			b.P50 = percentile(sorted, 0.50)
			b.P75 = percentile(sorted, 0.75)
			b.P90 = percentile(sorted, 0.90)
			b.P95 = percentile(sorted, 0.95)
			b.P99 = percentile(sorted, 0.99)
		}

		buckets = append(buckets, b)
	}

	return buckets, nil
}

func average(sorted []float64) float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return sum / float64(len(sorted))
}

// percentile implements the nearest-rank rule from spec.md §4.5: index =
// round(p*(n-1)), clamped to n-1.
func percentile(sorted []float64, p float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}

	idx := int(math.Round(p * float64(n-1)))

	if idx < 0 {
		idx = 0
	}

	if idx > n-1 {
		idx = n - 1
	}

	v := sorted[idx]

	return &v
}

package storage

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pingwarden/pingwarden/internal/models"
)

// PartitionPrefix is the directory-name prefix spec.md §6 requires for
// every sealed partition ("p-...").
const PartitionPrefix = "p-"

// MetricMeta is one entry in a partition's meta.json: the hex-encoded,
// length-prefixed series key, its offset and size within the data blob,
// its observed timestamp range, and its point count.
type MetricMeta struct {
	Name           string `json:"name"`
	Offset         int64  `json:"offset"`
	EncodedSize    int64  `json:"encoded_size"`
	MinTimestamp   int64  `json:"min_timestamp"`
	MaxTimestamp   int64  `json:"max_timestamp"`
	NumDataPoints  int64  `json:"num_data_points"`
}

// PartitionMeta is the full meta.json document for one partition.
type PartitionMeta struct {
	Metrics       []MetricMeta `json:"metrics"`
	TotalSize     int64        `json:"total_size"`
	TotalPoints   int64        `json:"total_points"`
	CreatedAt     time.Time    `json:"created_at"`
}

// seriesEntry is the in-memory representation of one label-combination's
// accumulated points, keyed by its encoded series key.
type seriesEntry struct {
	labels []models.Label
	points []Point
}

// sealPartition writes the given series snapshot out as a new partition
// directory: a binary data blob (one contiguous section per series, each
// section a sequence of (timestamp int64, value float64) pairs) and a
// meta.json describing each section's offset/size/range.
func sealPartition(baseDir string, entries map[string]*seriesEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	dirName := fmt.Sprintf("%s%d", PartitionPrefix, time.Now().UnixNano())
	dir := filepath.Join(baseDir, dirName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}

	dataPath := filepath.Join(dir, "data")

	f, err := os.Create(dataPath)
	if err != nil {
		return "", fmt.Errorf("create partition data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	meta := PartitionMeta{CreatedAt: time.Now()}

	var offset int64

	for _, key := range keys {
		entry := entries[key]

		sectionBytes, minTS, maxTS := encodePoints(entry.points)

		if _, err := w.Write(sectionBytes); err != nil {
			return "", fmt.Errorf("write partition section: %w", err)
		}

		mm := MetricMeta{
			Name:          hex.EncodeToString([]byte(key)),
			Offset:        offset,
			EncodedSize:   int64(len(sectionBytes)),
			MinTimestamp:  minTS,
			MaxTimestamp:  maxTS,
			NumDataPoints: int64(len(entry.points)),
		}

		meta.Metrics = append(meta.Metrics, mm)
		meta.TotalSize += mm.EncodedSize
		meta.TotalPoints += mm.NumDataPoints
		offset += mm.EncodedSize
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush partition data file: %w", err)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal partition meta: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "meta.json"), metaBytes, 0o644); err != nil {
		return "", fmt.Errorf("write partition meta: %w", err)
	}

	return dir, nil
}

func encodePoints(points []Point) (data []byte, minTS, maxTS int64) {
	buf := make([]byte, 0, len(points)*16)

	for i, p := range points {
		var tsBuf [8]byte
		binary.LittleEndian.PutUint64(tsBuf[:], uint64(p.Timestamp))
		buf = append(buf, tsBuf[:]...)

		var vBuf [8]byte
		binary.LittleEndian.PutUint64(vBuf[:], math.Float64bits(p.Value))
		buf = append(buf, vBuf[:]...)

		if i == 0 || p.Timestamp < minTS {
			minTS = p.Timestamp
		}

		if i == 0 || p.Timestamp > maxTS {
			maxTS = p.Timestamp
		}
	}

	return buf, minTS, maxTS
}

func decodePoints(data []byte) []Point {
	const recordSize = 16

	n := len(data) / recordSize
	points := make([]Point, 0, n)

	for i := 0; i < n; i++ {
		off := i * recordSize
		ts := int64(binary.LittleEndian.Uint64(data[off : off+8]))
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[off+8 : off+16]))
		points = append(points, Point{Timestamp: ts, Value: v})
	}

	return points
}

// loadPartition reads a sealed partition directory back into per-series
// point slices; a reopening store uses it to check that its sealed
// partitions are readable.
func loadPartition(dir string) (map[string]*seriesEntry, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("read meta.json: %w", err)
	}

	var meta PartitionMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta.json: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data"))
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	entries := make(map[string]*seriesEntry, len(meta.Metrics))

	for _, mm := range meta.Metrics {
		keyBytes, err := hex.DecodeString(mm.Name)
		if err != nil {
			return nil, fmt.Errorf("decode series key: %w", err)
		}

		metricName, labels, err := DecodeSeriesKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("decode series key: %w", err)
		}

		_ = metricName

		end := mm.Offset + mm.EncodedSize
		if end > int64(len(data)) {
			return nil, fmt.Errorf("partition %s: metric section out of bounds", dir)
		}

		entries[string(keyBytes)] = &seriesEntry{
			labels: labels,
			points: decodePoints(data[mm.Offset:end]),
		}
	}

	return entries, nil
}

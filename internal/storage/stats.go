package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

// TargetStats summarizes the on-disk footprint of one target's series, per
// spec.md §4.6.
type TargetStats struct {
	TargetID      string `json:"target_id"`
	EncodedSize   int64  `json:"encoded_size"`
	NumDataPoints int64  `json:"num_data_points"`
	MinTimestamp  int64  `json:"min_timestamp"`
	MaxTimestamp  int64  `json:"max_timestamp"`
}

// Stats is the §4.6 storage statistics report: per-target totals plus the
// grand total including WAL segments not yet sealed into a partition.
type Stats struct {
	Targets        []TargetStats `json:"targets"`
	TotalDiskBytes int64         `json:"total_disk_bytes"`
}

// ReadStats scans dir for sealed partitions and WAL segments, independent
// of any live Store, so it can be used against a store that is not
// currently open.
func ReadStats(dir string, log logger.Logger) (Stats, error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("read storage dir: %w", err)
	}

	byTarget := make(map[string]*TargetStats)
	var totalDiskBytes int64

	for _, e := range listing {
		if !e.IsDir() {
			continue
		}

		switch {
		case e.Name() == WalDir:
			size, err := dirSize(filepath.Join(dir, e.Name()))
			if err != nil {
				log.Warn().Err(err).Msg("statting wal dir")
				continue
			}

			totalDiskBytes += size

		case len(e.Name()) > len(PartitionPrefix) && e.Name()[:len(PartitionPrefix)] == PartitionPrefix:
			size, err := accumulatePartitionStats(filepath.Join(dir, e.Name()), byTarget)
			if err != nil {
				log.Warn().Err(err).Str("partition", e.Name()).Msg("skipping malformed partition")
				continue
			}

			totalDiskBytes += size
		}
	}

	targets := make([]TargetStats, 0, len(byTarget))
	for _, t := range byTarget {
		targets = append(targets, *t)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].EncodedSize > targets[j].EncodedSize })

	return Stats{Targets: targets, TotalDiskBytes: totalDiskBytes}, nil
}

func accumulatePartitionStats(partitionDir string, byTarget map[string]*TargetStats) (int64, error) {
	metaBytes, err := os.ReadFile(filepath.Join(partitionDir, "meta.json"))
	if err != nil {
		return 0, fmt.Errorf("read meta.json: %w", err)
	}

	var meta PartitionMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return 0, fmt.Errorf("unmarshal meta.json: %w", err)
	}

	dataSize, err := fileSize(filepath.Join(partitionDir, "data"))
	if err != nil {
		return 0, fmt.Errorf("stat data file: %w", err)
	}

	for _, mm := range meta.Metrics {
		keyBytes, err := hex.DecodeString(mm.Name)
		if err != nil {
			return 0, fmt.Errorf("decode series key: %w", err)
		}

		_, labels, err := DecodeSeriesKey(keyBytes)
		if err != nil {
			return 0, fmt.Errorf("decode series key: %w", err)
		}

		targetID := ""
		for _, l := range labels {
			if l.Name == models.LabelTargetID {
				targetID = l.Value
				break
			}
		}

		if targetID == "" {
			continue
		}

		t, ok := byTarget[targetID]
		if !ok {
			t = &TargetStats{TargetID: targetID}
			byTarget[targetID] = t
		}

		t.EncodedSize += mm.EncodedSize
		t.NumDataPoints += mm.NumDataPoints

		if t.MinTimestamp == 0 || mm.MinTimestamp < t.MinTimestamp {
			t.MinTimestamp = mm.MinTimestamp
		}

		if mm.MaxTimestamp > t.MaxTimestamp {
			t.MaxTimestamp = mm.MaxTimestamp
		}
	}

	return dataSize, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

func dirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, err
	}

	var total int64

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		size, err := fileSize(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}

		total += size
	}

	return total, nil
}

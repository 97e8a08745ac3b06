package api

import (
	"net/http"

	"github.com/pingwarden/pingwarden/internal/storage"
)

// storageStatsResponse matches the §6 wire contract for GET
// /api/storage/stats: total_size_bytes plus per-target sizes, sorted by
// size descending.
type storageStatsResponse struct {
	TotalSizeBytes int64                 `json:"total_size_bytes"`
	Targets        []storageTargetStats  `json:"targets"`
}

type storageTargetStats struct {
	TargetID          string `json:"target_id"`
	SizeBytes         int64  `json:"size_bytes"`
	DataPointCount    int64  `json:"data_point_count"`
	EarliestTimestamp *int64 `json:"earliest_timestamp,omitempty"`
	LatestTimestamp   *int64 `json:"latest_timestamp,omitempty"`
}

func (s *State) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := storage.ReadStats(s.Config().Database.Path, s.Log)
	if err != nil {
		writeServerError(w, err)
		return
	}

	resp := storageStatsResponse{
		TotalSizeBytes: stats.TotalDiskBytes,
		Targets:        make([]storageTargetStats, 0, len(stats.Targets)),
	}

	for _, t := range stats.Targets {
		ts := storageTargetStats{
			TargetID:       t.TargetID,
			SizeBytes:      t.EncodedSize,
			DataPointCount: t.NumDataPoints,
		}

		if t.MinTimestamp != 0 {
			ts.EarliestTimestamp = &t.MinTimestamp
		}

		if t.MaxTimestamp != 0 {
			ts.LatestTimestamp = &t.MaxTimestamp
		}

		resp.Targets = append(resp.Targets, ts)
	}

	writeJSON(w, resp)
}

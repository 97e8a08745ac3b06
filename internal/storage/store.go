package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

// Point is one (timestamp_ms, value) observation within a series.
type Point struct {
	Timestamp int64
	Value     float64
}

// Series is one label-combination's points, returned from a query.
type Series struct {
	Labels []models.Label
	Points []Point
}

//go:generate mockgen -destination=mock_store.go -package=storage github.com/pingwarden/pingwarden/internal/storage Store

// Store persists probe outcomes and answers time-range queries over them.
type Store interface {
	Insert(row models.MetricRow) error
	SelectAll(metricName string, from, to int64) ([]Series, error)
	Close() error
}

// rotationInterval governs how often in-memory points are sealed into a new
// partition directory. Sealing bounds memory growth and gives the WAL
// something to be truncated against.
const rotationInterval = 10 * time.Minute

// FileStore is the embedded, mmap-free time-series store described in
// spec.md §6: points accumulate in memory and in a WAL segment, and are
// periodically sealed into an immutable p-... partition directory.
type FileStore struct {
	dir string
	log logger.Logger

	mu      sync.Mutex
	entries map[string]*seriesEntry
	wal     *walWriter

	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewFileStore opens or creates the store at dir. Previously sealed
// partitions are checked for readability but stay on disk, where SelectAll
// reads them; only pending WAL segments are replayed into memory.
func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	if _, err := loadAllPartitions(dir); err != nil {
		return nil, fmt.Errorf("load partitions: %w", err)
	}

	entries := make(map[string]*seriesEntry)

	records, err := replayWAL(dir)
	if err != nil {
		return nil, fmt.Errorf("replay wal: %w", err)
	}

	for _, rec := range records {
		key := string(rec.key)

		entry, ok := entries[key]
		if !ok {
			_, labels, decodeErr := DecodeSeriesKey(rec.key)
			if decodeErr != nil {
				log.Warn().Err(decodeErr).Msg("dropping unreadable wal record")
				continue
			}

			entry = &seriesEntry{labels: labels}
			entries[key] = entry
		}

		entry.points = append(entry.points, Point{Timestamp: rec.ts, Value: rec.val})
	}

	wal, err := openWAL(dir)
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}

	s := &FileStore{
		dir:     dir,
		log:     log,
		entries: entries,
		wal:     wal,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go s.rotationLoop()

	return s, nil
}

func loadAllPartitions(dir string) (map[string]*seriesEntry, error) {
	result := make(map[string]*seriesEntry)

	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range listing {
		if e.IsDir() && len(e.Name()) > len(PartitionPrefix) && e.Name()[:len(PartitionPrefix)] == PartitionPrefix {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	for _, name := range names {
		partEntries, err := loadPartition(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load partition %s: %w", name, err)
		}

		for key, entry := range partEntries {
			existing, ok := result[key]
			if !ok {
				result[key] = entry
				continue
			}

			existing.points = append(existing.points, entry.points...)
		}
	}

	return result, nil
}

// Insert appends one row to the in-memory series and durably to the WAL.
func (s *FileStore) Insert(row models.MetricRow) error {
	key := EncodeSeriesKey(row.MetricName, row.Labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[string(key)]
	if !ok {
		entry = &seriesEntry{labels: row.Labels}
		s.entries[string(key)] = entry
	}

	entry.points = append(entry.points, Point{Timestamp: row.Timestamp, Value: row.Value})

	return s.wal.Append(key, row.Timestamp, row.Value)
}

// SelectAll returns every series for metricName whose points fall within
// [from, to] inclusive, each series' points sorted ascending by timestamp.
// It reads through both the live in-memory entries and any partitions
// already sealed to disk by rotationLoop, since seal() evicts sealed data
// from s.entries entirely (spec.md §4.5/§9: queries must see points from
// before the last seal, not just the current in-memory window).
func (s *FileStore) SelectAll(metricName string, from, to int64) ([]Series, error) {
	// Scan disk before taking the live lock: if a seal races with this
	// call, the worst case is a just-sealed partition missing from this
	// one read (self-heals on the next call, since it stays in s.entries
	// until seal() swaps it out) rather than double-counting it from
	// both the live map and the newly written partition.
	merged := loadSealedPartitionsBestEffort(s.dir, s.log)

	s.mu.Lock()
	for key, entry := range s.entries {
		if existing, ok := merged[key]; ok {
			existing.points = append(existing.points, entry.points...)
			continue
		}

		merged[key] = &seriesEntry{labels: entry.labels, points: append([]Point(nil), entry.points...)}
	}
	s.mu.Unlock()

	var out []Series

	for key, entry := range merged {
		name, _, err := DecodeSeriesKey([]byte(key))
		if err != nil {
			continue
		}

		if name != metricName {
			continue
		}

		var points []Point

		for _, p := range entry.points {
			if p.Timestamp >= from && p.Timestamp <= to {
				points = append(points, p)
			}
		}

		if len(points) == 0 {
			continue
		}

		sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })

		out = append(out, Series{Labels: entry.labels, Points: points})
	}

	return out, nil
}

// loadSealedPartitionsBestEffort is loadAllPartitions's runtime counterpart:
// it tolerates a partition directory that exists but isn't fully written
// yet (sealPartition creates the directory before its data/meta.json
// files), since that's a benign race with a concurrent seal rather than a
// corrupt store. NewFileStore's startup load uses the strict variant
// instead, where no such race is possible and a bad partition should fail
// loudly.
func loadSealedPartitionsBestEffort(dir string, log logger.Logger) map[string]*seriesEntry {
	result := make(map[string]*seriesEntry)

	listing, err := os.ReadDir(dir)
	if err != nil {
		return result
	}

	var names []string
	for _, e := range listing {
		if e.IsDir() && len(e.Name()) > len(PartitionPrefix) && e.Name()[:len(PartitionPrefix)] == PartitionPrefix {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	for _, name := range names {
		partEntries, err := loadPartition(filepath.Join(dir, name))
		if err != nil {
			log.Debug().Err(err).Str("partition", name).Msg("skipping partition mid-seal")
			continue
		}

		for key, entry := range partEntries {
			existing, ok := result[key]
			if !ok {
				result[key] = entry
				continue
			}

			existing.points = append(existing.points, entry.points...)
		}
	}

	return result
}

func (s *FileStore) rotationLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(rotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.seal(); err != nil {
				s.log.Error().Err(err).Msg("partition seal failed")
			}
		}
	}
}

func (s *FileStore) seal() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*seriesEntry)
	s.mu.Unlock()

	hasPoints := false
	for _, e := range entries {
		if len(e.points) > 0 {
			hasPoints = true
			break
		}
	}

	if !hasPoints {
		s.mu.Lock()
		for k, v := range entries {
			if _, ok := s.entries[k]; !ok {
				s.entries[k] = v
			}
		}
		s.mu.Unlock()

		return nil
	}

	if _, err := sealPartition(s.dir, entries); err != nil {
		s.mu.Lock()
		for k, v := range entries {
			if _, ok := s.entries[k]; !ok {
				s.entries[k] = v
			}
		}
		s.mu.Unlock()

		return err
	}

	s.mu.Lock()
	oldWAL := s.wal

	newWAL, err := openWAL(s.dir)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("open new wal segment: %w", err)
	}

	s.wal = newWAL
	s.mu.Unlock()

	if err := oldWAL.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing sealed wal segment")
	}

	if err := clearWAL(s.dir); err != nil {
		s.log.Warn().Err(err).Msg("clearing sealed wal segments")
	}

	return nil
}

// Close seals any remaining in-memory points and stops the rotation loop.
func (s *FileStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh

		closeErr = s.seal()

		s.mu.Lock()
		walErr := s.wal.Close()
		s.mu.Unlock()

		if closeErr == nil {
			closeErr = walErr
		}
	})

	return closeErr
}

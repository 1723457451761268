// Package settings persists per-pair display settings across sessions in
// a write-ahead log. Replaying the log last-write-wins reconstructs the
// current overrides.
package settings

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	DefaultDir   = "./wal/settings"
	segmentLimit = 1000
	maxSegments  = 5

	precisionKeyPrefix = "precision_"
)

type precisionRecord struct {
	Pair string `json:"pair"`
	DP   int    `json:"dp"`
}

// Store is a WAL-backed settings store.
type Store struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewStore opens (or creates) the settings WAL in dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "settings_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init settings WAL")
	}

	return &Store{wal: wal}, nil
}

// Put records a decimal-places override for a pair.
func (s *Store) Put(pair string, dp int) error {
	if s == nil || s.wal == nil {
		return errors.New("settings store is not initialized")
	}
	if pair == "" {
		return errors.New("settings pair is required")
	}

	payload, err := json.Marshal(precisionRecord{Pair: pair, DP: dp})
	if err != nil {
		return errors.Wrap(err, "marshal precision record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, precisionKeyPrefix+pair, payload)
}

// Precisions replays the log and returns the effective decimal-places
// override per pair. Later writes shadow earlier ones.
func (s *Store) Precisions() (map[string]int, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("settings store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int{}
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, precisionKeyPrefix) {
			continue
		}
		var rec precisionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decode precision record")
		}
		out[rec.Pair] = rec.DP
	}
	return out, nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("settings store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

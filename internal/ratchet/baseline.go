package ratchet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Lock acquisition retry schedule. Backoff doubles each attempt.
const (
	lockRetries      = 5
	lockBackoffStart = 50 * time.Millisecond
)

// Snapshot is the on-disk form of a baseline or current-metrics file: the
// last-accepted count per tracked metric.
type Snapshot struct {
	UpdatedAt time.Time      `json:"updated_at"`
	Metrics   map[string]int `json:"metrics"`
}

// BaselineStore reads and writes a metric snapshot file. It is the only
// mutable shared state in the pipeline: writes go through a lock file and an
// atomic rename so concurrent runs against the same jurisdiction cannot
// corrupt the baseline.
type BaselineStore struct {
	Path string
}

// NewBaselineStore creates a store for the snapshot file at path.
func NewBaselineStore(path string) *BaselineStore {
	return &BaselineStore{Path: path}
}

// ReadAll loads the full snapshot. A missing file yields an empty snapshot,
// not an error: a jurisdiction with no recorded baseline has no floor yet.
func (s *BaselineStore) ReadAll() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{Metrics: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("read baseline %s: %w", s.Path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", s.Path, err)
	}
	if snap.Metrics == nil {
		snap.Metrics = map[string]int{}
	}
	return &snap, nil
}

// Read returns the recorded count for one metric. The second return is false
// when the metric has no baseline entry.
func (s *BaselineStore) Read(metric string) (int, bool, error) {
	snap, err := s.ReadAll()
	if err != nil {
		return 0, false, err
	}
	value, ok := snap.Metrics[metric]
	return value, ok, nil
}

// Write records a count for one metric, preserving other entries.
func (s *BaselineStore) Write(metric string, value int) error {
	return s.update(func(snap *Snapshot) {
		snap.Metrics[metric] = value
	})
}

// WriteAll replaces the snapshot's metrics wholesale. Used by the explicit
// init/write-baseline operations to move the baseline forward intentionally.
func (s *BaselineStore) WriteAll(metrics map[string]int) error {
	return s.update(func(snap *Snapshot) {
		snap.Metrics = make(map[string]int, len(metrics))
		for k, v := range metrics {
			snap.Metrics[k] = v
		}
	})
}

// update applies fn under the lock and persists via temp-file + rename.
func (s *BaselineStore) update(fn func(*Snapshot)) error {
	unlock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	snap, err := s.ReadAll()
	if err != nil {
		return err
	}
	fn(snap)
	snap.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("create temp baseline: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp baseline: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace baseline: %w", err)
	}
	return nil
}

// acquireLock takes the sidecar lock file, retrying with doubling backoff.
func (s *BaselineStore) acquireLock() (func(), error) {
	lockPath := s.Path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0700); err != nil {
		return nil, fmt.Errorf("create baseline dir: %w", err)
	}

	backoff := lockBackoffStart
	for attempt := 0; attempt < lockRetries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire baseline lock: %w", err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("%w: %s", ErrLockContention, lockPath)
}

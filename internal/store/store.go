// Package store holds the in-memory snapshots of fetched detection records.
package store

import (
	"sync"
	"time"

	"detection-dashboard/internal/analytics"
	"detection-dashboard/internal/models"
)

// RecordStore is a replace-only snapshot. Each Replace swaps the whole
// collection; the last call wins when fetches overlap.
type RecordStore struct {
	name      string
	records   []models.DetectionRecord
	updatedAt time.Time
	mu        sync.RWMutex
}

func NewRecordStore(name string) *RecordStore {
	return &RecordStore{
		name:    name,
		records: []models.DetectionRecord{},
	}
}

func (s *RecordStore) Name() string {
	return s.name
}

// Replace installs records as the new snapshot, parsing datetimes once.
// A nil slice installs an empty snapshot.
func (s *RecordStore) Replace(records []models.DetectionRecord) {
	normalized := analytics.Normalize(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = normalized
	s.updatedAt = time.Now()
}

// Snapshot returns a copy of the current records.
func (s *RecordStore) Snapshot() []models.DetectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DetectionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *RecordStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *RecordStore) Get(id string) (models.DetectionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.DetectionRecord{}, false
}

// Remove drops every record with the given id and reports whether any was
// present.
func (s *RecordStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.DetectionRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(s.records) {
		return false
	}
	s.records = kept
	return true
}

// SetUnit changes the unit of the record with the given id in place.
func (s *RecordStore) SetUnit(id, unit string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Unit = unit
			found = true
		}
	}
	return found
}

// Union merges the snapshots of several stores by id, first seen wins.
func Union(stores ...*RecordStore) []models.DetectionRecord {
	var out []models.DetectionRecord
	for _, s := range stores {
		out = analytics.UnionByID(out, s.Snapshot())
	}
	if out == nil {
		out = []models.DetectionRecord{}
	}
	return out
}

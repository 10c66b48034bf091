package checkpoint

import (
	"context"
	"sort"
	"sync"

	"mimesis/internal/model"
)

// MemoryStore is the in-process backend used by tests and one-shot runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]model.ExperimentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Key]model.ExperimentRecord)}
}

func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) SaveRecord(ctx context.Context, record model.ExperimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(record)] = record
	return nil
}

func (s *MemoryStore) GetRecord(ctx context.Context, key Key) (model.ExperimentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	return record, ok, nil
}

func (s *MemoryStore) Records(ctx context.Context, sweepID string) ([]model.ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ExperimentRecord, 0)
	for key, record := range s.records {
		if key.SweepID == sweepID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ComboIndex != out[j].ComboIndex {
			return out[i].ComboIndex < out[j].ComboIndex
		}
		return out[i].Replicate < out[j].Replicate
	})
	return out, nil
}

func (s *MemoryStore) CompletedKeys(ctx context.Context, sweepID string) (map[Key]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Key]struct{})
	for key := range s.records {
		if key.SweepID == sweepID {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func (s *MemoryStore) SweepIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for key := range s.records {
		seen[key.SweepID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func recordKey(record model.ExperimentRecord) Key {
	return Key{SweepID: record.SweepID, ComboIndex: record.ComboIndex, Replicate: record.Replicate}
}

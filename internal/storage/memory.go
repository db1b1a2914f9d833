package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	analyses    map[uuid.UUID]Analysis
	order       map[uuid.UUID]int
	next        int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.analyses = make(map[uuid.UUID]Analysis)
	s.order = make(map[uuid.UUID]int)
	s.next = 0
	return nil
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, analysis Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if err := checkVersion(analysis.VersionedRecord); err != nil {
		return err
	}
	if _, ok := s.order[analysis.ID]; !ok {
		s.order[analysis.ID] = s.next
		s.next++
	}
	s.analyses[analysis.ID] = cloneAnalysis(analysis)
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id uuid.UUID) (Analysis, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.analyses[id]
	if !ok {
		return Analysis{}, false, nil
	}
	return cloneAnalysis(analysis), true, nil
}

func (s *MemoryStore) ListAnalyses(_ context.Context, limit int) ([]Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Analysis, 0, len(s.analyses))
	for _, analysis := range s.analyses {
		out = append(out, cloneAnalysis(analysis))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC.Equal(out[j].CreatedAtUTC) {
			// Prefer later saved entries for equal timestamps.
			return s.order[out[i].ID] > s.order[out[j].ID]
		}
		return out[i].CreatedAtUTC.After(out[j].CreatedAtUTC)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/gallerist/curio/pkg/metrics"
)

// MemStore is a bounded in-memory Store implementation.
//
// Records are kept in insertion order; once the bound is reached the
// oldest record is evicted. List walks the order newest-first.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
	maxSize int
}

// NewMemStore creates an in-memory history store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		records: make(map[string]Record),
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) Put(_ context.Context, rec Record) error {
	start := time.Now()
	s.mu.Lock()
	if _, exists := s.records[rec.ID]; !exists {
		if s.maxSize > 0 && len(s.order) >= s.maxSize {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.records, oldest)
		}
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	size := len(s.records)
	s.mu.Unlock()

	metrics.UpdateHistorySize(size)
	metrics.RecordHistoryOpLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemStore) List(_ context.Context, persona string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[s.order[i]]
		if persona != "" && rec.Persona != persona {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

package tripstore

import (
	"context"
	"sort"
	"sync"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	trips   map[string]model.Trip
	batches map[string]model.Batch
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:   make(map[string]model.Trip),
		batches: make(map[string]model.Batch),
	}
}

func (s *MemoryStore) SaveBatch(ctx context.Context, b model.Batch, trips []model.Trip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.batches[b.ID] = b
	for _, t := range trips {
		s.trips[t.ID] = t
	}
	return nil
}

func (s *MemoryStore) Trips(ctx context.Context, q Query) ([]model.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	SortTrips(out)
	return out, nil
}

// Batches returns the stored batches, most recent import first.
func (s *MemoryStore) Batches(ctx context.Context) ([]model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Imported.Equal(out[j].Imported) {
			return out[i].Imported.After(out[j].Imported)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Package audit records every trip import for later review.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Record describes one pipeline run.
type Record struct {
	Time       time.Time     `json:"time"`
	Source     string        `json:"source"`
	BatchID    string        `json:"batch_id,omitempty"`
	User       string        `json:"user,omitempty"`
	Rows       int           `json:"rows"`
	Accepted   int           `json:"accepted"`
	Rejected   int           `json:"rejected"`
	IssueCount int           `json:"issues"`
	Took       time.Duration `json:"took_ns"`
	Error      string        `json:"error,omitempty"`
}

// Query filters audit records. Zero fields do not filter.
type Query struct {
	Since      time.Time
	Until      time.Time
	Source     string
	FailedOnly bool
	// Limit keeps the most recent records when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.Time.After(q.Until) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.FailedOnly && r.Error == "" {
		return false
	}
	return true
}

// apply filters recs and returns them oldest first, trimmed to the limit.
func (q Query) apply(recs []Record) []Record {
	out := recs[:0:0]
	for _, r := range recs {
		if q.match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// Store persists audit records.
type Store interface {
	Append(ctx context.Context, r Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// MemoryStore keeps records in memory. It backs the audit trail when no
// log file is configured.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, r Record) error {
	s.mu.Lock()
	s.recs = append(s.recs, r)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return q.apply(append([]Record(nil), s.recs...)), nil
}

func (s *MemoryStore) Close() error { return nil }

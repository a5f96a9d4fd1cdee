// Package tripstore keeps imported trips and their batches.
package tripstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("trip store closed")

// Query selects trips. Zero fields do not filter; From and To are inclusive
// calendar days.
type Query struct {
	From        time.Time
	To          time.Time
	Plates      []string
	Departments []string
	BatchID     string
}

// Match reports whether t satisfies q.
func (q Query) Match(t model.Trip) bool {
	d := t.Day()
	if !q.From.IsZero() && d.Before(day(q.From)) {
		return false
	}
	if !q.To.IsZero() && d.After(day(q.To)) {
		return false
	}
	if q.BatchID != "" && t.BatchID != q.BatchID {
		return false
	}
	if len(q.Plates) > 0 && !containsFold(q.Plates, t.Plate) {
		return false
	}
	if len(q.Departments) > 0 && !containsFold(q.Departments, t.Department) {
		return false
	}
	return true
}

// Store persists trips. Saving a trip whose ID already exists replaces it,
// so re-importing a file is idempotent.
type Store interface {
	SaveBatch(ctx context.Context, b model.Batch, trips []model.Trip) error
	Trips(ctx context.Context, q Query) ([]model.Trip, error)
	Batches(ctx context.Context) ([]model.Batch, error)
	Close() error
}

// SortTrips orders trips by day, start clock, plate and source row.
func SortTrips(trips []model.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		a, b := trips[i], trips[j]
		if !a.Day().Equal(b.Day()) {
			return a.Day().Before(b.Day())
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Plate != b.Plate {
			return a.Plate < b.Plate
		}
		return a.Row < b.Row
	})
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

package fleet

import (
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// Filter narrows the trips a report covers. Empty fields match everything.
// From and To are inclusive calendar days. Name lists compare folded, so
// "khoa noi" matches "Khoa Nội".
type Filter struct {
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
	Plates      []string  `json:"plates,omitempty"`
	Drivers     []string  `json:"drivers,omitempty"`
	Departments []string  `json:"departments,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
}

// Match reports whether t is covered by f.
func (f Filter) Match(t model.Trip) bool {
	d := t.Day()
	if !f.From.IsZero() && d.Before(normalize.Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(normalize.Day(f.To)) {
		return false
	}
	if len(f.Plates) > 0 && !anyPlate(f.Plates, t.Plate) {
		return false
	}
	return anyName(f.Drivers, t.Driver) &&
		anyName(f.Departments, t.Department) &&
		anyName(f.Categories, t.Category)
}

// Apply returns the trips matching f, keeping their order.
func (f Filter) Apply(trips []model.Trip) []model.Trip {
	out := make([]model.Trip, 0, len(trips))
	for _, t := range trips {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// matchVehicle reports whether a registered vehicle without trips still
// belongs in a report filtered by f.
func (f Filter) matchVehicle(v model.Vehicle) bool {
	if len(f.Drivers) > 0 || len(f.Categories) > 0 {
		return false
	}
	if len(f.Plates) > 0 && !anyPlate(f.Plates, v.Plate) {
		return false
	}
	return anyName(f.Departments, v.Department)
}

// Days returns the number of calendar days the report covers: the filter
// window when both ends are set, otherwise the span of the trips.
func (f Filter) Days(trips []model.Trip) int {
	from, to := f.Span(trips)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// Span returns the first and last day covered, filling open ends from trips.
func (f Filter) Span(trips []model.Trip) (time.Time, time.Time) {
	var from, to time.Time
	if !f.From.IsZero() {
		from = normalize.Day(f.From)
	}
	if !f.To.IsZero() {
		to = normalize.Day(f.To)
	}
	if !from.IsZero() && !to.IsZero() {
		return from, to
	}
	var lo, hi time.Time
	for _, t := range trips {
		d := t.Day()
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	if from.IsZero() {
		from = lo
	}
	if to.IsZero() {
		to = hi
	}
	return from, to
}

func anyName(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	fv := normalize.FoldHeader(v)
	for _, s := range list {
		if normalize.FoldHeader(s) == fv {
			return true
		}
	}
	return false
}

func anyPlate(list []string, plate string) bool {
	key := plateKey(plate)
	for _, p := range list {
		if plateKey(p) == key {
			return true
		}
	}
	return false
}

// label returns s or a placeholder for rows without a value.
func label(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

// Unknown labels trips missing a grouping value.
const Unknown = "(không rõ)"

package fleet

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/auth"
	corefleet "github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// errForbidden marks a filter outside the departments of the user.
type errForbidden struct{ department string }

func (e errForbidden) Error() string {
	return fmt.Sprintf("department %q not allowed", e.department)
}

// parseFilter reads from, to, plate, driver, department and category. Name
// parameters may repeat or hold comma-separated values.
func parseFilter(q url.Values) (corefleet.Filter, error) {
	var f corefleet.Filter
	var err error
	if f.From, err = parseDay(q.Get("from")); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseDay(q.Get("to")); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to is before from")
	}
	f.Plates = list(q, "plate")
	f.Drivers = list(q, "driver")
	f.Departments = list(q, "department")
	f.Categories = list(q, "category")
	return f, nil
}

// parseDay accepts yyyy-mm-dd and the dd/mm/yyyy forms of the trip logs.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	d, err := normalize.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return normalize.Day(d), nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// scope restricts f to the departments of u. Users without departments see
// the whole fleet.
func scope(f corefleet.Filter, u auth.User) (corefleet.Filter, error) {
	if u.IsAdmin() || len(u.Departments) == 0 {
		return f, nil
	}
	if len(f.Departments) == 0 {
		f.Departments = append([]string(nil), u.Departments...)
		return f, nil
	}
	allowed := make(map[string]bool, len(u.Departments))
	for _, d := range u.Departments {
		allowed[normalize.FoldHeader(d)] = true
	}
	for _, d := range f.Departments {
		if !allowed[normalize.FoldHeader(d)] {
			return f, errForbidden{d}
		}
	}
	return f, nil
}

func intParam(q url.Values, key string, def, max int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

func parsePivot(q url.Values, f corefleet.Filter) (corefleet.PivotQuery, error) {
	pq := corefleet.PivotQuery{Filter: f}
	var err error
	if pq.Dimension, err = corefleet.ParseDimension(q.Get("dimension")); err != nil {
		return pq, err
	}
	if pq.Granularity, err = corefleet.ParseGranularity(q.Get("period")); err != nil {
		return pq, err
	}
	if pq.Metric, err = corefleet.ParseMetric(q.Get("metric")); err != nil {
		return pq, err
	}
	if pq.At, err = parseDay(q.Get("at")); err != nil {
		return pq, fmt.Errorf("at: %w", err)
	}
	return pq, nil
}

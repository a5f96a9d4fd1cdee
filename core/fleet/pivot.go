package fleet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// Dimension groups pivot rows.
type Dimension string

const (
	DimVehicle    Dimension = "vehicle"
	DimDriver     Dimension = "driver"
	DimDepartment Dimension = "department"
	DimCategory   Dimension = "category"
)

// Granularity is the length of a pivot period.
type Granularity string

const (
	PerDay     Granularity = "day"
	PerWeek    Granularity = "week"
	PerMonth   Granularity = "month"
	PerQuarter Granularity = "quarter"
	PerYear    Granularity = "year"
)

// Metric is the value summed in a pivot cell.
type Metric string

const (
	SumTrips   Metric = "trips"
	SumKm      Metric = "km"
	SumHours   Metric = "hours"
	SumRevenue Metric = "revenue"
	SumFuel    Metric = "fuel"
)

// ParseDimension accepts the dimension names used in query strings.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimVehicle, DimDriver, DimDepartment, DimCategory:
		return d, nil
	case "":
		return DimVehicle, nil
	}
	return "", fmt.Errorf("unknown pivot dimension %q", s)
}

// ParseGranularity accepts period names used in query strings.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case PerDay, PerWeek, PerMonth, PerQuarter, PerYear:
		return g, nil
	case "":
		return PerMonth, nil
	}
	return "", fmt.Errorf("unknown pivot period %q", s)
}

// ParseMetric accepts metric names used in query strings.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case SumTrips, SumKm, SumHours, SumRevenue, SumFuel:
		return m, nil
	case "":
		return SumTrips, nil
	}
	return "", fmt.Errorf("unknown pivot metric %q", s)
}

// PivotQuery selects a pivot table. At picks the current period; zero means
// the period of the latest matching trip. The From and To of Filter are
// ignored since the periods define the window.
type PivotQuery struct {
	Dimension   Dimension
	Granularity Granularity
	Metric      Metric
	At          time.Time
	Filter      Filter
}

// Period is a closed range of days.
type Period struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

func (p Period) contains(d time.Time) bool { return !d.Before(p.From) && !d.After(p.To) }

// PivotRow compares one group across the two periods. ChangePct is nil when
// the previous value is zero.
type PivotRow struct {
	Key       string   `json:"key"`
	Current   float64  `json:"current"`
	Previous  float64  `json:"previous"`
	Delta     float64  `json:"delta"`
	ChangePct *float64 `json:"change_pct"`
}

// PivotTable is the period-over-period comparison.
type PivotTable struct {
	Dimension   Dimension   `json:"dimension"`
	Granularity Granularity `json:"granularity"`
	Metric      Metric      `json:"metric"`
	Current     Period      `json:"current"`
	Previous    Period      `json:"previous"`
	Rows        []PivotRow  `json:"rows"`
	Total       PivotRow    `json:"total"`
}

// Pivot groups trips by q.Dimension and compares the current period with the
// one immediately before it. Rows are ordered by current value, largest
// first; groups active in either period are listed.
func Pivot(trips []model.Trip, q PivotQuery) PivotTable {
	f := q.Filter
	f.From, f.To = time.Time{}, time.Time{}
	trips = f.Apply(trips)
	if q.Dimension == "" {
		q.Dimension = DimVehicle
	}
	if q.Granularity == "" {
		q.Granularity = PerMonth
	}
	if q.Metric == "" {
		q.Metric = SumTrips
	}
	at := q.At
	if at.IsZero() {
		for _, t := range trips {
			if t.Day().After(at) {
				at = t.Day()
			}
		}
	}
	tbl := PivotTable{Dimension: q.Dimension, Granularity: q.Granularity, Metric: q.Metric}
	if at.IsZero() {
		return tbl
	}
	tbl.Current = periodOf(normalize.Day(at), q.Granularity)
	tbl.Previous = periodOf(tbl.Current.From.AddDate(0, 0, -1), q.Granularity)

	cur := map[string]float64{}
	prev := map[string]float64{}
	for _, t := range trips {
		d := t.Day()
		var m map[string]float64
		switch {
		case tbl.Current.contains(d):
			m = cur
		case tbl.Previous.contains(d):
			m = prev
		default:
			continue
		}
		m[groupKey(t, q.Dimension)] += metricValue(t, q.Metric)
	}
	keys := map[string]bool{}
	for k := range cur {
		keys[k] = true
	}
	for k := range prev {
		keys[k] = true
	}
	tbl.Rows = make([]PivotRow, 0, len(keys))
	var total PivotRow
	for k := range keys {
		r := newRow(k, cur[k], prev[k])
		total.Current += r.Current
		total.Previous += r.Previous
		tbl.Rows = append(tbl.Rows, r)
	}
	sort.Slice(tbl.Rows, func(i, j int) bool {
		if tbl.Rows[i].Current != tbl.Rows[j].Current {
			return tbl.Rows[i].Current > tbl.Rows[j].Current
		}
		return tbl.Rows[i].Key < tbl.Rows[j].Key
	})
	tbl.Total = newRow("Tổng", total.Current, total.Previous)
	return tbl
}

func newRow(key string, cur, prev float64) PivotRow {
	r := PivotRow{Key: key, Current: cur, Previous: prev, Delta: cur - prev}
	if prev != 0 {
		pct := (cur - prev) / prev * 100
		r.ChangePct = &pct
	}
	return r
}

func groupKey(t model.Trip, d Dimension) string {
	switch d {
	case DimDriver:
		return label(t.Driver)
	case DimDepartment:
		return label(t.Department)
	case DimCategory:
		return label(t.Category)
	default:
		return label(t.Plate)
	}
}

func metricValue(t model.Trip, m Metric) float64 {
	switch m {
	case SumKm:
		return t.DistanceKm
	case SumHours:
		return t.Hours()
	case SumRevenue:
		return float64(t.RevenueVND)
	case SumFuel:
		return t.FuelLiters
	default:
		return 1
	}
}

// periodOf returns the period of granularity g containing day d. Weeks are
// ISO weeks starting on Monday.
func periodOf(d time.Time, g Granularity) Period {
	y, m, _ := d.Date()
	switch g {
	case PerDay:
		return Period{Label: d.Format("2006-01-02"), From: d, To: d}
	case PerWeek:
		offset := (int(d.Weekday()) + 6) % 7
		from := d.AddDate(0, 0, -offset)
		iy, iw := d.ISOWeek()
		return Period{Label: fmt.Sprintf("%d-W%02d", iy, iw), From: from, To: from.AddDate(0, 0, 6)}
	case PerQuarter:
		q := (int(m)-1)/3 + 1
		from := time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{Label: fmt.Sprintf("%d-Q%d", y, q), From: from, To: from.AddDate(0, 3, -1)}
	case PerYear:
		from := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
		return Period{Label: fmt.Sprintf("%d", y), From: from, To: from.AddDate(1, 0, -1)}
	default:
		from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return Period{Label: from.Format("2006-01"), From: from, To: from.AddDate(0, 1, -1)}
	}
}

package fleet

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// Summary holds fleet-wide totals for a report.
type Summary struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	Days            int       `json:"days"`
	Trips           int       `json:"trips"`
	Vehicles        int       `json:"vehicles"`
	Drivers         int       `json:"drivers"`
	Departments     int       `json:"departments"`
	DistanceKm      float64   `json:"distance_km"`
	Hours           float64   `json:"hours"`
	FuelLiters      float64   `json:"fuel_liters"`
	RevenueVND      int64     `json:"revenue_vnd"`
	AvgKmPerTrip    float64   `json:"avg_km_per_trip"`
	AvgHoursPerTrip float64   `json:"avg_hours_per_trip"`
	MedianKmPerTrip float64   `json:"median_km_per_trip"`
	P90KmPerTrip    float64   `json:"p90_km_per_trip"`
	TripsWithIssues int       `json:"trips_with_issues"`
}

// Summarize totals the trips matching f.
func Summarize(trips []model.Trip, f Filter) Summary {
	trips = f.Apply(trips)
	var s Summary
	s.From, s.To = f.Span(trips)
	s.Days = f.Days(trips)
	vehicles := map[string]bool{}
	drivers := map[string]bool{}
	departments := map[string]bool{}
	kms := make([]float64, 0, len(trips))
	for _, t := range trips {
		s.Trips++
		s.DistanceKm += t.DistanceKm
		s.Hours += t.Hours()
		s.FuelLiters += t.FuelLiters
		s.RevenueVND += t.RevenueVND
		if len(t.Issues) > 0 {
			s.TripsWithIssues++
		}
		vehicles[plateKey(t.Plate)] = true
		if t.Driver != "" {
			drivers[t.Driver] = true
		}
		if t.Department != "" {
			departments[t.Department] = true
		}
		kms = append(kms, t.DistanceKm)
	}
	s.Vehicles, s.Drivers, s.Departments = len(vehicles), len(drivers), len(departments)
	if s.Trips > 0 {
		s.AvgKmPerTrip = s.DistanceKm / float64(s.Trips)
		s.AvgHoursPerTrip = s.Hours / float64(s.Trips)
		sort.Float64s(kms)
		s.MedianKmPerTrip = stat.Quantile(0.5, stat.Empirical, kms, nil)
		s.P90KmPerTrip = stat.Quantile(0.9, stat.Empirical, kms, nil)
	}
	return s
}

// DayPoint is one day of the daily activity series.
type DayPoint struct {
	Day        time.Time `json:"day"`
	Trips      int       `json:"trips"`
	Vehicles   int       `json:"vehicles"`
	DistanceKm float64   `json:"distance_km"`
	Hours      float64   `json:"hours"`
	RevenueVND int64     `json:"revenue_vnd"`
}

// maxSeriesDays bounds the zero-filled series.
const maxSeriesDays = 3660

// DailySeries returns one point per day of the report span, including days
// without trips.
func DailySeries(trips []model.Trip, f Filter) []DayPoint {
	trips = f.Apply(trips)
	from, to := f.Span(trips)
	if from.IsZero() || to.Before(from) {
		return nil
	}
	byDay := make(map[time.Time]*DayPoint)
	plates := make(map[time.Time]map[string]bool)
	for _, t := range trips {
		d := t.Day()
		p, ok := byDay[d]
		if !ok {
			p = &DayPoint{Day: d}
			byDay[d] = p
			plates[d] = map[string]bool{}
		}
		p.Trips++
		p.DistanceKm += t.DistanceKm
		p.Hours += t.Hours()
		p.RevenueVND += t.RevenueVND
		plates[d][plateKey(t.Plate)] = true
	}
	var out []DayPoint
	for d := from; !d.After(to) && len(out) < maxSeriesDays; d = d.AddDate(0, 0, 1) {
		if p, ok := byDay[d]; ok {
			p.Vehicles = len(plates[d])
			out = append(out, *p)
			continue
		}
		out = append(out, DayPoint{Day: d})
	}
	return out
}

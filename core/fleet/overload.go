package fleet

import (
	"sort"
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// Subjects of an overload.
const (
	SubjectDriver  = "driver"
	SubjectVehicle = "vehicle"
)

// Overload metrics.
const (
	MetricHours = "hours"
	MetricTrips = "trips"
	MetricKm    = "km"
)

// Severity of an overload.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Overload is one daily limit exceeded by a driver or a vehicle.
type Overload struct {
	Subject  string    `json:"subject"`
	Key      string    `json:"key"`
	Day      time.Time `json:"day"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Limit    float64   `json:"limit"`
	Severity Severity  `json:"severity"`
}

type subjectDay struct {
	subject string
	key     string
	day     time.Time
}

// DetectOverloads totals trips per driver-day and vehicle-day and reports
// every metric above its threshold. A value above the limit is a warning;
// reaching limit*CriticalRatio makes it critical. Trips without a driver
// only count for their vehicle.
func DetectOverloads(trips []model.Trip, cfg Config) []Overload {
	days := make(map[subjectDay]dayTotals)
	// Vehicles group on plateKey and report the first plate seen.
	plates := make(map[string]string)
	for _, t := range trips {
		d := t.Day()
		if t.Driver != "" {
			k := subjectDay{SubjectDriver, t.Driver, d}
			days[k] = days[k].add(t)
		}
		pk := plateKey(t.Plate)
		if _, ok := plates[pk]; !ok {
			plates[pk] = t.Plate
		}
		k := subjectDay{SubjectVehicle, pk, d}
		days[k] = days[k].add(t)
	}

	th := cfg.Thresholds
	var out []Overload
	for k, tot := range days {
		checks := []struct {
			metric string
			value  float64
			limit  float64
		}{
			{MetricHours, tot.hours, th.MaxDailyHours},
			{MetricTrips, float64(tot.trips), float64(th.MaxDailyTrips)},
			{MetricKm, tot.km, th.MaxDailyKm},
		}
		for _, c := range checks {
			if c.limit <= 0 || c.value <= c.limit {
				continue
			}
			sev := SeverityWarning
			if c.value >= c.limit*th.CriticalRatio {
				sev = SeverityCritical
			}
			key := k.key
			if k.subject == SubjectVehicle {
				key = plates[k.key]
			}
			out = append(out, Overload{
				Subject: k.subject, Key: key, Day: k.day,
				Metric: c.metric, Value: c.value, Limit: c.limit, Severity: sev,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Metric < b.Metric
	})
	return out
}

// CountBySeverity tallies overloads per subject and severity.
func CountBySeverity(overloads []Overload) map[string]map[Severity]int {
	out := map[string]map[Severity]int{
		SubjectDriver:  {SeverityWarning: 0, SeverityCritical: 0},
		SubjectVehicle: {SeverityWarning: 0, SeverityCritical: 0},
	}
	for _, o := range overloads {
		out[o.Subject][o.Severity]++
	}
	return out
}

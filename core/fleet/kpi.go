package fleet

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// FuelStatus compares measured consumption with the vehicle standard.
type FuelStatus string

const (
	FuelOK      FuelStatus = "ok"
	FuelOver    FuelStatus = "over"
	FuelUnder   FuelStatus = "under"
	FuelUnknown FuelStatus = "unknown"
)

// VehicleKPI aggregates the trips of one vehicle.
type VehicleKPI struct {
	Plate        string  `json:"plate"`
	Model        string  `json:"model,omitempty"`
	Department   string  `json:"department,omitempty"`
	Trips        int     `json:"trips"`
	ActiveDays   int     `json:"active_days"`
	DistanceKm   float64 `json:"distance_km"`
	Hours        float64 `json:"hours"`
	RevenueVND   int64   `json:"revenue_vnd"`
	FuelLiters   float64 `json:"fuel_liters"`
	AvgKmPerTrip float64 `json:"avg_km_per_trip"`
	// LitersPer100Km is zero when the trips carry no fuel or distance.
	LitersPer100Km float64 `json:"liters_per_100km"`
	FuelStandard   float64 `json:"fuel_standard"`
	// FuelVariancePct is the deviation from the standard in percent. It is
	// nil when either side is unknown.
	FuelVariancePct *float64   `json:"fuel_variance_pct"`
	FuelStatus      FuelStatus `json:"fuel_status"`
	// Utilization is hours driven over hours available in the period,
	// clamped to [0, 1].
	Utilization float64 `json:"utilization"`
}

// DriverKPI aggregates the trips of one driver.
type DriverKPI struct {
	Driver         string  `json:"driver"`
	Department     string  `json:"department,omitempty"`
	Trips          int     `json:"trips"`
	ActiveDays     int     `json:"active_days"`
	Vehicles       int     `json:"vehicles"`
	DistanceKm     float64 `json:"distance_km"`
	Hours          float64 `json:"hours"`
	RevenueVND     int64   `json:"revenue_vnd"`
	AvgHoursPerDay float64 `json:"avg_hours_per_day"`
	MaxDailyHours  float64 `json:"max_daily_hours"`
	OverloadDays   int     `json:"overload_days"`
	// WorkloadZ is the z-score of Hours among the drivers in the report.
	WorkloadZ float64 `json:"workload_z"`
	Outlier   bool    `json:"outlier"`
}

type dayTotals struct {
	trips int
	km    float64
	hours float64
}

func (d dayTotals) add(t model.Trip) dayTotals {
	d.trips++
	d.km += t.DistanceKm
	d.hours += t.Hours()
	return d
}

type vehicleAcc struct {
	kpi         VehicleKPI
	days        map[time.Time]bool
	fuelKm      float64
	models      counter
	departments counter
}

// VehicleKPIs computes one row per vehicle seen in the filtered trips, plus
// registered vehicles without trips that still fall under the filter, so
// idle cars show up with zero utilisation. Rows are ordered by distance,
// largest first.
func VehicleKPIs(trips []model.Trip, catalog *Catalog, cfg Config, f Filter) []VehicleKPI {
	trips = f.Apply(trips)
	days := f.Days(trips)
	accs := make(map[string]*vehicleAcc)
	get := func(plate string) *vehicleAcc {
		key := plateKey(plate)
		a, ok := accs[key]
		if !ok {
			a = &vehicleAcc{
				kpi:         VehicleKPI{Plate: plate},
				days:        make(map[time.Time]bool),
				models:      counter{},
				departments: counter{},
			}
			accs[key] = a
		}
		return a
	}
	for _, t := range trips {
		a := get(t.Plate)
		a.kpi.Trips++
		a.kpi.DistanceKm += t.DistanceKm
		a.kpi.Hours += t.Hours()
		a.kpi.RevenueVND += t.RevenueVND
		a.kpi.FuelLiters += t.FuelLiters
		if t.FuelLiters > 0 {
			a.fuelKm += t.DistanceKm
		}
		a.days[t.Day()] = true
		a.models.add(t.VehicleModel)
		a.departments.add(t.Department)
	}
	for _, v := range catalog.Vehicles() {
		if v.Retired || !f.matchVehicle(v) {
			continue
		}
		get(v.Plate)
	}

	out := make([]VehicleKPI, 0, len(accs))
	for _, a := range accs {
		k := a.kpi
		k.ActiveDays = len(a.days)
		k.Model = a.models.top()
		k.Department = a.departments.top()
		std := cfg.DefaultFuelStandard
		if v, ok := catalog.Lookup(k.Plate); ok {
			k.Plate = v.Plate
			if v.Model != "" {
				k.Model = v.Model
			}
			if v.Department != "" {
				k.Department = v.Department
			}
			if v.FuelStandard > 0 {
				std = v.FuelStandard
			}
		}
		k.FuelStandard = std
		if k.Trips > 0 {
			k.AvgKmPerTrip = k.DistanceKm / float64(k.Trips)
		}
		// Only trips that report fuel count towards consumption.
		if k.FuelLiters > 0 && a.fuelKm > 0 {
			k.LitersPer100Km = k.FuelLiters / a.fuelKm * 100
		}
		k.FuelStatus, k.FuelVariancePct = fuelStatus(k.LitersPer100Km, std, cfg.FuelTolerance)
		k.Utilization = utilization(k.Hours, days, cfg.AvailableHoursPerDay)
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm > out[j].DistanceKm
		}
		return out[i].Plate < out[j].Plate
	})
	return out
}

func fuelStatus(actual, std, tol float64) (FuelStatus, *float64) {
	if actual <= 0 || std <= 0 {
		return FuelUnknown, nil
	}
	v := (actual - std) / std * 100
	switch {
	case actual > std*(1+tol):
		return FuelOver, &v
	case actual < std*(1-tol):
		return FuelUnder, &v
	default:
		return FuelOK, &v
	}
}

func utilization(hours float64, days int, perDay float64) float64 {
	if days <= 0 || perDay <= 0 {
		return 0
	}
	u := hours / (float64(days) * perDay)
	return math.Max(0, math.Min(1, u))
}

type driverAcc struct {
	kpi         DriverKPI
	days        map[time.Time]dayTotals
	plates      map[string]bool
	departments counter
}

// DriverKPIs computes one row per named driver in the filtered trips,
// ordered by hours driven, largest first. Workload z-scores need at least
// three drivers; with fewer every score is zero.
func DriverKPIs(trips []model.Trip, cfg Config, f Filter) []DriverKPI {
	trips = f.Apply(trips)
	accs := make(map[string]*driverAcc)
	for _, t := range trips {
		if t.Driver == "" {
			continue
		}
		a, ok := accs[t.Driver]
		if !ok {
			a = &driverAcc{
				kpi:         DriverKPI{Driver: t.Driver},
				days:        make(map[time.Time]dayTotals),
				plates:      make(map[string]bool),
				departments: counter{},
			}
			accs[t.Driver] = a
		}
		a.kpi.Trips++
		a.kpi.DistanceKm += t.DistanceKm
		a.kpi.Hours += t.Hours()
		a.kpi.RevenueVND += t.RevenueVND
		a.days[t.Day()] = a.days[t.Day()].add(t)
		a.plates[plateKey(t.Plate)] = true
		a.departments.add(t.Department)
	}

	out := make([]DriverKPI, 0, len(accs))
	for _, a := range accs {
		k := a.kpi
		k.ActiveDays = len(a.days)
		k.Vehicles = len(a.plates)
		k.Department = a.departments.top()
		if k.ActiveDays > 0 {
			k.AvgHoursPerDay = k.Hours / float64(k.ActiveDays)
		}
		for _, d := range a.days {
			k.MaxDailyHours = math.Max(k.MaxDailyHours, d.hours)
			if overloaded(d, cfg.Thresholds) {
				k.OverloadDays++
			}
		}
		out = append(out, k)
	}

	if len(out) >= 3 {
		hours := make([]float64, len(out))
		for i, k := range out {
			hours[i] = k.Hours
		}
		mean, std := stat.MeanStdDev(hours, nil)
		if std > 0 {
			for i := range out {
				out[i].WorkloadZ = (out[i].Hours - mean) / std
				out[i].Outlier = math.Abs(out[i].WorkloadZ) >= cfg.OutlierZ
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Driver < out[j].Driver
	})
	return out
}

func overloaded(d dayTotals, th Thresholds) bool {
	return d.hours > th.MaxDailyHours || d.trips > th.MaxDailyTrips || d.km > th.MaxDailyKm
}

// counter finds the most frequent non-empty value.
type counter map[string]int

func (c counter) add(s string) {
	if s != "" {
		c[s]++
	}
}

func (c counter) top() string {
	best, n := "", 0
	for s, k := range c {
		if k > n || (k == n && s < best) {
			best, n = s, k
		}
	}
	return best
}

package fleet

import (
	"sort"
	"time"

	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/model"
)

// VehicleDays totals trips per vehicle and day for time-series sinks.
func VehicleDays(trips []model.Trip) []metrics.VehicleDay {
	type key struct {
		plate string
		day   time.Time
	}
	acc := make(map[key]*metrics.VehicleDay)
	for _, t := range trips {
		k := key{plateKey(t.Plate), t.Day()}
		v, ok := acc[k]
		if !ok {
			v = &metrics.VehicleDay{Plate: t.Plate, Department: t.Department, Day: k.day}
			acc[k] = v
		}
		v.Trips++
		v.DistanceKm += t.DistanceKm
		v.Hours += t.Hours()
		v.FuelLiters += t.FuelLiters
		v.RevenueVND += t.RevenueVND
	}
	out := make([]metrics.VehicleDay, 0, len(acc))
	for _, v := range acc {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].Plate < out[j].Plate
	})
	return out
}

// Snapshots converts vehicle KPIs for gauge sinks.
func Snapshots(kpis []VehicleKPI) []metrics.VehicleSnapshot {
	out := make([]metrics.VehicleSnapshot, len(kpis))
	for i, k := range kpis {
		out[i] = metrics.VehicleSnapshot{
			Plate:          k.Plate,
			Utilization:    k.Utilization,
			LitersPer100Km: k.LitersPer100Km,
			FuelStandard:   k.FuelStandard,
		}
	}
	return out
}

// OverloadCounts labels the overload tally for metric sinks. Every subject
// and severity is present so gauges drop back to zero.
func OverloadCounts(overloads []Overload) map[metrics.OverloadKey]int {
	out := make(map[metrics.OverloadKey]int)
	for subject, bySev := range CountBySeverity(overloads) {
		for sev, n := range bySev {
			out[metrics.OverloadKey{Subject: subject, Severity: string(sev)}] = n
		}
	}
	return out
}

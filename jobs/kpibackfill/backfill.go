// Package kpibackfill replays stored trips into a time-series sink, e.g.
// after the InfluxDB bucket was recreated.
package kpibackfill

import (
	"context"
	"time"

	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
)

// Backfill writes the vehicle-day totals of the trips matching q to rec, one
// calendar month per write. It returns the number of vehicle-days written.
func Backfill(ctx context.Context, store tripstore.Store, rec metrics.VehicleDayRecorder, q tripstore.Query) (int, error) {
	trips, err := store.Trips(ctx, q)
	if err != nil {
		return 0, err
	}
	days := fleet.VehicleDays(trips)
	written := 0
	for len(days) > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n := monthLen(days)
		if err := rec.RecordVehicleDays(days[:n]); err != nil {
			return written, err
		}
		written += n
		days = days[n:]
	}
	return written, nil
}

// monthLen counts the leading days sharing the month of days[0]. VehicleDays
// returns days in date order.
func monthLen(days []metrics.VehicleDay) int {
	y, m := days[0].Day.Year(), days[0].Day.Month()
	n := 1
	for n < len(days) && sameMonth(days[n].Day, y, m) {
		n++
	}
	return n
}

func sameMonth(d time.Time, y int, m time.Month) bool {
	return d.Year() == y && d.Month() == m
}

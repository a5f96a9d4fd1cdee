package metrics

import (
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// IngestResult describes a finished pipeline run.
type IngestResult struct {
	Source   string
	Rows     int
	Accepted int
	Rejected int
	Issues   map[model.IssueCode]int
	Took     time.Duration
	Failed   bool
	Time     time.Time
}

// Sink records ingest runs.
type Sink interface {
	RecordIngest(r IngestResult) error
}

// VehicleDay is the activity of one vehicle on one day.
type VehicleDay struct {
	Plate      string
	Department string
	Day        time.Time
	Trips      int
	DistanceKm float64
	Hours      float64
	FuelLiters float64
	RevenueVND int64
}

// VehicleDayRecorder stores per-day vehicle activity as a time series.
type VehicleDayRecorder interface {
	RecordVehicleDays(days []VehicleDay) error
}

// VehicleSnapshot is the current KPI state of a vehicle.
type VehicleSnapshot struct {
	Plate          string
	Utilization    float64
	LitersPer100Km float64
	FuelStandard   float64
}

// VehicleSnapshotRecorder exposes the latest KPIs per vehicle.
type VehicleSnapshotRecorder interface {
	RecordVehicleSnapshots(s []VehicleSnapshot) error
}

// OverloadRecorder records the number of open overloads by kind and severity.
type OverloadRecorder interface {
	RecordOverloads(counts map[OverloadKey]int) error
}

// OverloadKey labels an overload count.
type OverloadKey struct {
	Subject  string // driver or vehicle
	Severity string
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordIngest(IngestResult) error                { return nil }
func (NopSink) RecordVehicleDays([]VehicleDay) error           { return nil }
func (NopSink) RecordVehicleSnapshots([]VehicleSnapshot) error { return nil }
func (NopSink) RecordOverloads(map[OverloadKey]int) error      { return nil }

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
)

// PromSink exposes ingest statistics and fleet KPIs as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	rows        *prometheus.CounterVec
	issues      *prometheus.CounterVec
	duration    prometheus.Histogram
	overloads   *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	fuel        *prometheus.GaugeVec
	standard    *prometheus.GaugeVec
	vehicles    prometheus.Gauge
}

// NewPromSink registers the metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg. Collectors already
// registered by an earlier sink are reused. A nil registerer defaults to the
// global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umc_ingest_runs_total",
			Help: "Import runs by source and outcome",
		}, []string{"source", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umc_ingest_rows_total",
			Help: "Data rows read by source and status",
		}, []string{"source", "status"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umc_ingest_issues_total",
			Help: "Normalisation issues by code",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "umc_ingest_duration_seconds",
			Help:    "Time spent reading, parsing and storing a source",
			Buckets: prometheus.DefBuckets,
		}),
		overloads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "umc_fleet_overloads",
			Help: "Overloads found in the last evaluated days",
		}, []string{"subject", "severity"}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "umc_vehicle_utilization_ratio",
			Help: "Share of available hours a vehicle was driven",
		}, []string{"plate"}),
		fuel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "umc_vehicle_fuel_liters_per_100km",
			Help: "Measured fuel consumption",
		}, []string{"plate"}),
		standard: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "umc_vehicle_fuel_standard_liters_per_100km",
			Help: "Fuel consumption standard of the vehicle",
		}, []string{"plate"}),
		vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "umc_fleet_vehicles",
			Help: "Vehicles in the last KPI snapshot",
		}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, s.rows); err != nil {
		return nil, err
	}
	if s.issues, err = register(reg, s.issues); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.overloads, err = register(reg, s.overloads); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, s.utilization); err != nil {
		return nil, err
	}
	if s.fuel, err = register(reg, s.fuel); err != nil {
		return nil, err
	}
	if s.standard, err = register(reg, s.standard); err != nil {
		return nil, err
	}
	if s.vehicles, err = register(reg, s.vehicles); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordIngest counts the run, its rows and its issues.
func (s *PromSink) RecordIngest(r coremetrics.IngestResult) error {
	status := "ok"
	if r.Failed {
		status = "failed"
	}
	s.runs.WithLabelValues(r.Source, status).Inc()
	s.duration.Observe(r.Took.Seconds())
	if r.Failed {
		return nil
	}
	s.rows.WithLabelValues(r.Source, "accepted").Add(float64(r.Accepted))
	s.rows.WithLabelValues(r.Source, "rejected").Add(float64(r.Rejected))
	for code, n := range r.Issues {
		s.issues.WithLabelValues(string(code)).Add(float64(n))
	}
	return nil
}

// RecordOverloads sets the overload gauges.
func (s *PromSink) RecordOverloads(counts map[coremetrics.OverloadKey]int) error {
	for k, n := range counts {
		s.overloads.WithLabelValues(k.Subject, k.Severity).Set(float64(n))
	}
	return nil
}

// RecordVehicleSnapshots replaces the per-vehicle gauges, so plates missing
// from the snapshot disappear.
func (s *PromSink) RecordVehicleSnapshots(snaps []coremetrics.VehicleSnapshot) error {
	s.utilization.Reset()
	s.fuel.Reset()
	s.standard.Reset()
	for _, v := range snaps {
		s.utilization.WithLabelValues(v.Plate).Set(v.Utilization)
		if v.LitersPer100Km > 0 {
			s.fuel.WithLabelValues(v.Plate).Set(v.LitersPer100Km)
		}
		if v.FuelStandard > 0 {
			s.standard.WithLabelValues(v.Plate).Set(v.FuelStandard)
		}
	}
	s.vehicles.Set(float64(len(snaps)))
	return nil
}

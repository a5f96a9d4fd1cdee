// Package fleet computes the fleet dashboard figures from normalised trips:
// per-vehicle and per-driver KPIs, overload detection, daily series and
// period-over-period pivot tables.
//
// All functions are pure; they take the trips to report on and return new
// values. Thresholds and fuel standards come from Config.
package fleet

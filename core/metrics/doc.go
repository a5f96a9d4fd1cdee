// Package metrics defines the recorders fed by trip imports and KPI
// computation. A Sink always records ingest runs; sinks may also implement
// the optional recorder interfaces. NewSink builds sinks from configuration
// and combines several into a MultiSink.
package metrics

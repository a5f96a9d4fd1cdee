package metrics

import "github.com/corner-25/test-umc-sub000/core/factory"

// Config defines the metrics sinks and the Prometheus listener.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr serves /metrics on a separate listener when set.
	PrometheusAddr string `json:"prometheus_addr"`
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/corner-25/test-umc-sub000/core/factory"
	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
)

// init registers the built-in sinks next to core's "nop".
func init() {
	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}

package metrics

import (
	"context"

	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/monitoring"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	"github.com/corner-25/test-umc-sub000/infra/logger"
	"github.com/corner-25/test-umc-sub000/internal/eventbus"
)

// Collector turns ingest events into KPI metrics. Each successful import
// writes the affected vehicle-days and refreshes the per-vehicle gauges over
// every stored trip.
type Collector struct {
	Sink    coremetrics.Sink
	Store   tripstore.Store
	Catalog *fleet.Catalog
	Config  fleet.Config
	Log     logger.Logger
}

// Handle records the metrics of one event.
func (c Collector) Handle(ctx context.Context, ev events.IngestEvent) error {
	if !ev.OK() || len(ev.Trips) == 0 {
		return nil
	}
	if r, ok := c.Sink.(coremetrics.VehicleDayRecorder); ok {
		if err := r.RecordVehicleDays(fleet.VehicleDays(ev.Trips)); err != nil {
			return err
		}
	}
	r, ok := c.Sink.(coremetrics.VehicleSnapshotRecorder)
	if !ok || c.Store == nil {
		return nil
	}
	trips, err := c.Store.Trips(ctx, tripstore.Query{})
	if err != nil {
		return err
	}
	kpis := fleet.VehicleKPIs(trips, c.Catalog, c.Config, fleet.Filter{})
	return r.RecordVehicleSnapshots(fleet.Snapshots(kpis))
}

// StartEventCollector subscribes to bus and records metrics for every ingest
// event until ctx is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.IngestEvent], c Collector) {
	if bus == nil || c.Sink == nil {
		return
	}
	if c.Log == nil {
		c.Log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer monitoring.Recover()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := c.Handle(ctx, ev); err != nil {
					c.Log.Errorf("collect metrics for %s: %v", ev.Source, err)
				}
			}
		}
	}()
}

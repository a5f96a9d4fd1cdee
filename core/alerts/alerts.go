// Package alerts reports driver and vehicle overloads after each import.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/logger"
	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/monitoring"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	inflog "github.com/corner-25/test-umc-sub000/infra/logger"
)

// Alert is one overload found after an import.
type Alert struct {
	BatchID  string         `json:"batch_id"`
	Source   string         `json:"source"`
	Detected time.Time      `json:"detected"`
	Overload fleet.Overload `json:"overload"`
}

// Notifier delivers alerts, for instance over MQTT.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// NopNotifier drops alerts.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Alert) error { return nil }

// Alerter re-evaluates the days touched by each imported batch. Overloads
// are computed over every stored trip of those days, so a driver split over
// two files is still totalled once. Each overload is notified only once per
// process.
type Alerter struct {
	store    tripstore.Store
	cfg      fleet.Config
	notifier Notifier
	sink     metrics.Sink
	log      logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]fleet.Severity
}

// Option configures an Alerter.
type Option func(*Alerter)

// WithNotifier sets the alert transport.
func WithNotifier(n Notifier) Option { return func(a *Alerter) { a.notifier = n } }

// WithSink records overload counts on s when it implements
// metrics.OverloadRecorder.
func WithSink(s metrics.Sink) Option { return func(a *Alerter) { a.sink = s } }

// WithLogger overrides the logger.
func WithLogger(l logger.Logger) Option { return func(a *Alerter) { a.log = l } }

// New returns an Alerter reading trips from store.
func New(store tripstore.Store, cfg fleet.Config, opts ...Option) *Alerter {
	cfg.SetDefaults()
	a := &Alerter{
		store:    store,
		cfg:      cfg,
		notifier: NopNotifier{},
		sink:     metrics.NopSink{},
		log:      inflog.NopLogger{},
		now:      time.Now,
		seen:     make(map[string]fleet.Severity),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run handles events until ch is closed or ctx is done.
func (a *Alerter) Run(ctx context.Context, ch <-chan events.IngestEvent) {
	defer monitoring.Recover()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if _, err := a.Handle(ctx, ev); err != nil {
				a.log.Errorf("overload alerts for %s: %v", ev.Source, err)
				monitoring.CaptureException(err, map[string]string{"module": "alerts", "source": ev.Source})
			}
		}
	}
}

// Handle computes the overloads of the days in ev and notifies the new ones.
// It returns the overloads notified.
func (a *Alerter) Handle(ctx context.Context, ev events.IngestEvent) ([]fleet.Overload, error) {
	if !ev.OK() || len(ev.Trips) == 0 {
		return nil, nil
	}
	from, to := span(ev.Trips)
	trips, err := a.store.Trips(ctx, tripstore.Query{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load trips %s..%s: %w", from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}
	touched := make(map[time.Time]bool)
	for _, t := range ev.Trips {
		touched[t.Day()] = true
	}
	days := trips[:0:0]
	for _, t := range trips {
		if touched[t.Day()] {
			days = append(days, t)
		}
	}
	found := fleet.DetectOverloads(days, a.cfg)
	if rec, ok := a.sink.(metrics.OverloadRecorder); ok {
		if err := rec.RecordOverloads(fleet.OverloadCounts(found)); err != nil {
			a.log.Warnf("record overloads: %v", err)
		}
	}

	fresh := a.filterNew(found)
	var errs []error
	var sent []fleet.Overload
	for _, o := range fresh {
		al := Alert{BatchID: ev.Batch.ID, Source: ev.Source, Detected: a.now().UTC(), Overload: o}
		if err := a.notifier.Notify(ctx, al); err != nil {
			a.forget(o)
			errs = append(errs, err)
			continue
		}
		sent = append(sent, o)
	}
	if len(found) > 0 {
		a.log.Warnw("overloads detected", map[string]any{
			"batch":    ev.Batch.ID,
			"total":    len(found),
			"notified": len(sent),
		})
	}
	if len(errs) > 0 {
		return sent, fmt.Errorf("notify %d of %d alerts failed: %w", len(errs), len(fresh), errs[0])
	}
	return sent, nil
}

// filterNew drops overloads already notified with the same or a higher
// severity. An escalation from warning to critical is notified again.
func (a *Alerter) filterNew(found []fleet.Overload) []fleet.Overload {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []fleet.Overload
	for _, o := range found {
		k := key(o)
		prev, ok := a.seen[k]
		if ok && (prev == o.Severity || prev == fleet.SeverityCritical) {
			continue
		}
		a.seen[k] = o.Severity
		out = append(out, o)
	}
	return out
}

func (a *Alerter) forget(o fleet.Overload) {
	a.mu.Lock()
	delete(a.seen, key(o))
	a.mu.Unlock()
}

func key(o fleet.Overload) string {
	return o.Subject + "|" + o.Key + "|" + o.Day.Format("2006-01-02") + "|" + o.Metric
}

func span(trips []model.Trip) (time.Time, time.Time) {
	days := make([]time.Time, len(trips))
	for i, t := range trips {
		days[i] = t.Day()
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days[0], days[len(days)-1]
}

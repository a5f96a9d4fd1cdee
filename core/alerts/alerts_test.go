package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
)

type captureNotifier struct {
	mu   sync.Mutex
	got  []Alert
	fail error
}

func (c *captureNotifier) Notify(_ context.Context, a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.got = append(c.got, a)
	return nil
}

type overloadSink struct {
	metrics.NopSink
	counts map[metrics.OverloadKey]int
}

func (s *overloadSink) RecordOverloads(c map[metrics.OverloadKey]int) error {
	s.counts = c
	return nil
}

var day1 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func trip(id, batch, plate string, d time.Time, hours float64) model.Trip {
	return model.Trip{
		ID: id, BatchID: batch, Date: d, Plate: plate, Driver: "Nguyễn Văn An",
		Duration: time.Duration(hours * float64(time.Hour)), DistanceKm: 20,
	}
}

func ingest(t *testing.T, store tripstore.Store, id string, trips ...model.Trip) events.IngestEvent {
	t.Helper()
	b := model.Batch{ID: id, Source: id + ".xlsx", Rows: len(trips), Accepted: len(trips)}
	require.NoError(t, store.SaveBatch(context.Background(), b, trips))
	return events.IngestEvent{Source: b.Source, Batch: b, Trips: trips}
}

func TestHandleAcrossBatches(t *testing.T) {
	store := tripstore.NewMemoryStore()
	n := &captureNotifier{}
	sink := &overloadSink{}
	a := New(store, fleet.Config{}, WithNotifier(n), WithSink(sink))
	ctx := context.Background()

	evA := ingest(t, store, "a", trip("t1", "a", "51B-00001", day1, 6))
	sent, err := a.Handle(ctx, evA)
	require.NoError(t, err)
	assert.Empty(t, sent)

	evB := ingest(t, store, "b", trip("t2", "b", "51B-00002", day1, 5))
	sent, err = a.Handle(ctx, evB)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, fleet.SubjectDriver, sent[0].Subject)
	assert.Equal(t, fleet.MetricHours, sent[0].Metric)
	assert.Equal(t, fleet.SeverityWarning, sent[0].Severity)
	assert.InDelta(t, 11, sent[0].Value, 1e-9)
	require.Len(t, n.got, 1)
	assert.Equal(t, "b", n.got[0].BatchID)
	assert.Equal(t, 1, sink.counts[metrics.OverloadKey{Subject: fleet.SubjectDriver, Severity: "warning"}])
	assert.Equal(t, 0, sink.counts[metrics.OverloadKey{Subject: fleet.SubjectVehicle, Severity: "critical"}])

	sent, err = a.Handle(ctx, evB)
	require.NoError(t, err)
	assert.Empty(t, sent, "already notified")

	evC := ingest(t, store, "c", trip("t3", "c", "51B-00003", day1, 2))
	sent, err = a.Handle(ctx, evC)
	require.NoError(t, err)
	require.Len(t, sent, 1, "escalation to critical")
	assert.Equal(t, fleet.SeverityCritical, sent[0].Severity)
	assert.Len(t, n.got, 2)
}

func TestHandleIgnoresOtherDays(t *testing.T) {
	store := tripstore.NewMemoryStore()
	n := &captureNotifier{}
	a := New(store, fleet.Config{}, WithNotifier(n))
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	ingest(t, store, "old", trip("t1", "old", "51B-00001", day2, 11))
	ev := ingest(t, store, "new", trip("t2", "new", "51B-00002", day1, 1), trip("t3", "new", "51B-00002", day3, 1))
	sent, err := a.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestHandleNotifyFailure(t *testing.T) {
	store := tripstore.NewMemoryStore()
	n := &captureNotifier{fail: errors.New("broker down")}
	a := New(store, fleet.Config{}, WithNotifier(n))
	ev := ingest(t, store, "a", trip("t1", "a", "51B-00001", day1, 11))

	_, err := a.Handle(context.Background(), ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, n.fail)

	n.fail = nil
	sent, err := a.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Len(t, sent, 2, "driver and vehicle retried")
}

func TestHandleSkipsFailedRuns(t *testing.T) {
	a := New(tripstore.NewMemoryStore(), fleet.Config{})
	sent, err := a.Handle(context.Background(), events.IngestEvent{Err: errors.New("bad file")})
	assert.NoError(t, err)
	assert.Nil(t, sent)
}

func TestRunStopsOnClose(t *testing.T) {
	store := tripstore.NewMemoryStore()
	n := &captureNotifier{}
	a := New(store, fleet.Config{}, WithNotifier(n))
	ch := make(chan events.IngestEvent, 1)
	ch <- ingest(t, store, "a", trip("t1", "a", "51B-00001", day1, 11))
	close(ch)

	done := make(chan struct{})
	go func() {
		a.Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	assert.Len(t, n.got, 2)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/model"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordVehicleDays(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "umc", Bucket: "fleet"})
	defer sink.Close()

	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	days := []coremetrics.VehicleDay{
		{Plate: "51B-12345", Department: "Khoa Nội", Day: day, Trips: 3, DistanceKm: 42.5, Hours: 2.25, FuelLiters: 5.1, RevenueVND: 300000},
		{Plate: "51B-67890", Day: day, Trips: 1, DistanceKm: 10},
	}
	require.NoError(t, sink.RecordVehicleDays(days))

	p1 := write.NewPointWithMeasurement("vehicle_day").
		AddTag("plate", "51B-12345").
		AddTag("department", "Khoa Nội").
		AddField("trips", 3).
		AddField("distance_km", 42.5).
		AddField("hours", 2.25).
		AddField("fuel_liters", 5.1).
		AddField("revenue_vnd", int64(300000)).
		SetTime(day)
	p2 := write.NewPointWithMeasurement("vehicle_day").
		AddTag("plate", "51B-67890").
		AddField("trips", 1).
		AddField("distance_km", 10.0).
		AddField("hours", 0.0).
		AddField("fuel_liters", 0.0).
		AddField("revenue_vnd", int64(0)).
		SetTime(day)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, line(p1)+"\n"+line(p2), rec.bodies[0])

	require.NoError(t, sink.RecordVehicleDays(nil))
	assert.Len(t, rec.bodies, 1, "empty batch is not written")
}

func TestInfluxSinkRecordIngest(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "umc", Bucket: "fleet"})
	defer sink.Close()

	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordIngest(coremetrics.IngestResult{
		Source: "march.xlsx", Rows: 10, Accepted: 9, Rejected: 1,
		Issues: map[model.IssueCode]int{model.IssueFormat: 2, model.IssueMissingPlate: 1},
		Took:   1500 * time.Millisecond, Time: now,
	}))
	p := write.NewPointWithMeasurement("ingest_run").
		AddTag("source", "march.xlsx").
		AddTag("failed", "false").
		AddField("rows", 10).
		AddField("accepted", 9).
		AddField("rejected", 1).
		AddField("issues", 3).
		AddField("took_ms", 1500.0).
		SetTime(now)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, line(p), rec.bodies[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}

func TestInfluxConfigValidate(t *testing.T) {
	assert.Error(t, InfluxConfig{URL: "http://influx:8086"}.Validate())
	assert.NoError(t, InfluxConfig{URL: "http://influx:8086", Org: "umc", Bucket: "fleet"}.Validate())
}

package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/infra/logger"
)

// InfluxConfig locates the bucket receiving daily vehicle KPIs.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Validate checks that every connection field is set.
func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return fmt.Errorf("influx sink requires url, org and bucket")
	}
	return nil
}

// InfluxSink writes import runs and daily vehicle activity to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending in the
// write path is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when
// the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordIngest writes one ingest_run point.
func (s *InfluxSink) RecordIngest(r coremetrics.IngestResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	issues := 0
	for _, n := range r.Issues {
		issues += n
	}
	p := write.NewPointWithMeasurement("ingest_run").
		AddTag("source", r.Source).
		AddTag("failed", fmt.Sprint(r.Failed)).
		AddField("rows", r.Rows).
		AddField("accepted", r.Accepted).
		AddField("rejected", r.Rejected).
		AddField("issues", issues).
		AddField("took_ms", round3(r.Took.Seconds()*1000)).
		SetTime(ts)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleDays writes one vehicle_day point per vehicle and day,
// timestamped at midnight UTC. Rewriting a day overwrites its fields.
func (s *InfluxSink) RecordVehicleDays(days []coremetrics.VehicleDay) error {
	if len(days) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(days))
	for _, d := range days {
		p := write.NewPointWithMeasurement("vehicle_day").
			AddTag("plate", d.Plate)
		if d.Department != "" {
			p = p.AddTag("department", d.Department)
		}
		p = p.AddField("trips", d.Trips).
			AddField("distance_km", round3(d.DistanceKm)).
			AddField("hours", round3(d.Hours)).
			AddField("fuel_liters", round3(d.FuelLiters)).
			AddField("revenue_vnd", d.RevenueVND).
			SetTime(d.Day)
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

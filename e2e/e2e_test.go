package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/corner-25/test-umc-sub000/core/alerts"
	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	"github.com/corner-25/test-umc-sub000/infra/metrics"
	"github.com/corner-25/test-umc-sub000/infra/mqtt"
	"github.com/corner-25/test-umc-sub000/jobs/kpibackfill"
)

const (
	influxOrg    = "umc"
	influxBucket = "fleet"
	influxToken  = "e2e-admin-token"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("e2e tests skipped in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// startInflux starts an InfluxDB 2.7 container initialised with the test
// org, bucket and token, and returns its base URL.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(90 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "8086")
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func seedStore(t *testing.T) *tripstore.MemoryStore {
	t.Helper()
	s := tripstore.NewMemoryStore()
	trips := []model.Trip{
		{ID: "1", Date: day(2), Plate: "51B-12345", Driver: "Nguyễn Văn An", Department: "Khoa Nội", DistanceKm: 250, Duration: 6 * time.Hour},
		{ID: "2", Date: day(2), Plate: "51B-12345", Driver: "Nguyễn Văn An", Department: "Khoa Nội", DistanceKm: 260, Duration: 5 * time.Hour},
		{ID: "3", Date: day(3), Plate: "51B-67890", Driver: "Trần Bình", Department: "Khoa Ngoại", DistanceKm: 40, Duration: time.Hour},
	}
	require.NoError(t, s.SaveBatch(context.Background(), model.Batch{ID: "b1", Source: "jan.xlsx"}, trips))
	return s
}

func TestBackfillToInflux(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	url := startInflux(ctx, t)

	sink := metrics.NewInfluxSink(metrics.InfluxConfig{URL: url, Token: influxToken, Org: influxOrg, Bucket: influxBucket})
	defer sink.Close()
	n, err := kpibackfill.Backfill(ctx, seedStore(t), sink, tripstore.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cli := NewInfluxClient(url, influxOrg, influxToken)
	defer cli.Close()
	recs, err := cli.Records(ctx, fmt.Sprintf(`from(bucket:"%s")
  |> range(start: 2025-01-01T00:00:00Z, stop: 2025-02-01T00:00:00Z)
  |> filter(fn: (r) => r._measurement == "vehicle_day" and r._field == "distance_km")`, influxBucket))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byPlate := map[string]float64{}
	for _, r := range recs {
		byPlate[fmt.Sprint(r["plate"])] = r["_value"].(float64)
	}
	assert.InDelta(t, 510, byPlate["51B-12345"], 1e-6)
	assert.InDelta(t, 40, byPlate["51B-67890"], 1e-6)
}

func TestOverloadAlertOverMQTT(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	broker := startMosquitto(ctx, t)

	cfg := mqtt.Config{Enabled: true, Broker: broker, ClientID: "umc-e2e", QoS: 1}
	cfg.SetDefaults()
	topic := cfg.Topic("overloads", "#")

	received := make(chan paho.Message, 4)
	subOpts := paho.NewClientOptions().AddBroker(broker).SetClientID("umc-e2e-sub")
	sub := paho.NewClient(subOpts)
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) { received <- m })
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	client, err := mqtt.NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	store := seedStore(t)
	trips, err := store.Trips(ctx, tripstore.Query{})
	require.NoError(t, err)
	alerter := alerts.New(store, fleet.Config{}, alerts.WithNotifier(mqtt.NewAlertNotifier(client)))
	ev := events.IngestEvent{Source: "jan.xlsx", Batch: model.Batch{ID: "b1", Source: "jan.xlsx"}, Trips: trips}
	notified, err := alerter.Handle(ctx, ev)
	require.NoError(t, err)
	require.NotEmpty(t, notified)

	select {
	case m := <-received:
		assert.Contains(t, m.Topic(), "umc/fleet/overloads/")
		var a alerts.Alert
		require.NoError(t, json.Unmarshal(m.Payload(), &a))
		assert.Equal(t, "jan.xlsx", a.Source)
		assert.True(t, day(2).Equal(a.Overload.Day))
	case <-time.After(10 * time.Second):
		t.Fatal("no alert received")
	}
}

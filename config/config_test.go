package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `server:
  addr: ":9000"
  shutdown_timeout: 5s
auth:
  secret: "0123456789abcdef"
  session_ttl: 2h
  users:
    - username: admin
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      role: admin
    - username: khoanoi
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      departments: ["Khoa Nội"]
fleet:
  thresholds:
    max_daily_hours: 9
  vehicles:
    - plate: "51B-12345"
      fuel_standard: 12
ingest:
  mapping:
    plate: ["bsx"]
  sources:
    - type: csv
      conf:
        path: "trips.csv"
store:
  driver: memory
metrics:
  prometheus_addr: ":9102"
  sinks:
    - type: prometheus
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: "hospital/fleet/"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	require.Len(t, cfg.Auth.Users, 2)
	assert.Equal(t, []string{"Khoa Nội"}, cfg.Auth.Users[1].Departments)
	assert.Equal(t, 9.0, cfg.Fleet.Thresholds.MaxDailyHours)
	assert.Equal(t, 8, cfg.Fleet.Thresholds.MaxDailyTrips)
	require.Len(t, cfg.Fleet.Vehicles, 1)
	assert.Equal(t, 12.0, cfg.Fleet.Vehicles[0].FuelStandard)
	assert.Equal(t, []string{"bsx"}, cfg.Ingest.Mapping["plate"])
	require.Len(t, cfg.Ingest.Sources, 1)
	assert.Equal(t, "csv", cfg.Ingest.Sources[0].Type)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "jsonl", cfg.Audit.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9102", cfg.Metrics.PrometheusAddr)
	assert.Equal(t, "hospital/fleet", cfg.MQTT.TopicPrefix)
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"store": {"driver": "sqlite", "path": "a.db"}, "fleet": {"thresholds": {"max_daily_km": 300}}}`)
	t.Setenv("UMC_STORE__PATH", "b.db")
	t.Setenv("UMC_FLEET__THRESHOLDS__MAX_DAILY_KM", "450")
	t.Setenv("UMC_LOGGING__LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "b.db", cfg.Store.Path)
	assert.Equal(t, 450.0, cfg.Fleet.Thresholds.MaxDailyKm)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "umc-fleet.db", cfg.Store.Path)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown extension": "",
		"mapping field":     "ingest:\n  mapping:\n    colour: [\"mau\"]\n",
		"sample rate":       "sentry:\n  traces_sample_rate: 2\n",
		"store driver":      "store:\n  driver: postgres\n",
		"short secret":      "auth:\n  secret: short\n  users:\n    - username: a\n      password_hash: x\n",
		"source type":       "ingest:\n  sources:\n    - type: ftp\n",
		"log level":         "logging:\n  level: loud\n",
		"critical ratio":    "fleet:\n  thresholds:\n    critical_ratio: 0.5\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			file := "config.yaml"
			if data == "" {
				file = "config.toml"
			}
			_, err := Load(writeFile(t, file, data))
			assert.Error(t, err)
		})
	}
}

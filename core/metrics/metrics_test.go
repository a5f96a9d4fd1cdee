package metrics_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/corner-25/test-umc-sub000/core/metrics"
)

type ingestOnly struct{ runs int }

func (s *ingestOnly) RecordIngest(metrics.IngestResult) error { s.runs++; return nil }

type fullSink struct {
	ingestOnly
	days  int
	snaps int
	over  int
	fail  bool
}

func (s *fullSink) RecordVehicleDays(d []metrics.VehicleDay) error {
	s.days += len(d)
	if s.fail {
		return errors.New("write failed")
	}
	return nil
}
func (s *fullSink) RecordVehicleSnapshots(v []metrics.VehicleSnapshot) error {
	s.snaps += len(v)
	return nil
}
func (s *fullSink) RecordOverloads(c map[metrics.OverloadKey]int) error { s.over += len(c); return nil }

func TestMultiSinkForwardsToCapableSinks(t *testing.T) {
	a := &ingestOnly{}
	b := &fullSink{fail: true}
	m := metrics.NewMultiSink(a, b)

	require.NoError(t, m.RecordIngest(metrics.IngestResult{Source: "t1.xlsx"}))
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, b.runs)

	err := m.RecordVehicleDays([]metrics.VehicleDay{{Plate: "51B-1"}})
	assert.EqualError(t, err, "write failed")
	assert.Equal(t, 1, b.days)

	require.NoError(t, m.RecordVehicleSnapshots([]metrics.VehicleSnapshot{{}, {}}))
	require.NoError(t, m.RecordOverloads(map[metrics.OverloadKey]int{{Subject: "driver", Severity: "critical"}: 1}))
	assert.Equal(t, 2, b.snaps)
	assert.Equal(t, 1, b.over)
}

func TestNewSinkFromYAML(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte("sinks:\n  - type: nop\n  - type: nop\n"), &cfg))
	s, err := metrics.NewSink(cfg.Sinks)
	require.NoError(t, err)
	assert.IsType(t, &metrics.MultiSink{}, s)

	s, err = metrics.NewSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)
}

func TestNewSinkUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg))
	_, err := metrics.NewSink(cfg.Sinks)
	assert.Error(t, err)
}

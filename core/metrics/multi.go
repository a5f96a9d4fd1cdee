package metrics

import "errors"

// MultiSink forwards records to every sink supporting them.
type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink { return &MultiSink{Sinks: sinks} }

// RecordIngest forwards to all sinks and joins their errors.
func (m *MultiSink) RecordIngest(r IngestResult) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordIngest(r))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordVehicleDays(days []VehicleDay) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(VehicleDayRecorder); ok {
			errs = append(errs, r.RecordVehicleDays(days))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordVehicleSnapshots(snaps []VehicleSnapshot) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(VehicleSnapshotRecorder); ok {
			errs = append(errs, r.RecordVehicleSnapshots(snaps))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordOverloads(counts map[OverloadKey]int) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(OverloadRecorder); ok {
			errs = append(errs, r.RecordOverloads(counts))
		}
	}
	return errors.Join(errs...)
}

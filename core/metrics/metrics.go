package metrics

import "time"

// DispatchRecord describes one dispatch request for observability purposes.
type DispatchRecord struct {
	RequestID              string
	Outcome                string
	DriverID               string
	Candidates             int
	Routable               int
	PickupDistance         float64
	PickupTime             float64
	TripDistance           float64
	TripTime               float64
	DestinationUnreachable bool
	Duration               time.Duration
	Time                   time.Time
}

// MetricsSink records dispatch outcomes.
type MetricsSink interface {
	RecordDispatch(rec DispatchRecord) error
}

// SearchRecord describes one shortest-path search.
type SearchRecord struct {
	Leg      string // "pickup" or "trip"
	Settled  int
	Found    bool
	Duration time.Duration
}

// SearchRecorder is implemented by sinks able to record search statistics.
type SearchRecorder interface {
	RecordSearch(recs []SearchRecord) error
}

// FleetSizeRecorder records the number of tracked drivers.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchRecord) error { return nil }
func (NopSink) RecordSearch([]SearchRecord) error   { return nil }
func (NopSink) RecordFleetSize(int) error           { return nil }

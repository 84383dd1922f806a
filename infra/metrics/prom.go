package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
)

// PromSink records dispatch outcomes in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	pickupTime  prometheus.Histogram
	tripTime    prometheus.Histogram
	candidates  *prometheus.HistogramVec
	fleet       prometheus.Gauge
}

var timeBuckets = []float64{30, 60, 120, 300, 600, 900, 1200, 1800, 2700, 3600}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridedispatch_driver_assignments_total",
			Help: "Number of requests assigned to each driver",
		}, []string{"driver_id"}),
		pickupTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ridedispatch_pickup_time_seconds",
			Help:    "Estimated driver to rider travel time",
			Buckets: timeBuckets,
		}),
		tripTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ridedispatch_trip_time_seconds",
			Help:    "Estimated rider to destination travel time",
			Buckets: timeBuckets,
		}),
		candidates: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ridedispatch_candidates",
			Help:    "Drivers considered per request",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}, []string{"kind"}),
		fleet: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ridedispatch_fleet_drivers",
			Help: "Number of drivers known to the fleet tracker",
		}),
	}
	var err error
	if s.assignments, err = register(reg, s.assignments); err != nil {
		return nil, err
	}
	if s.pickupTime, err = register(reg, s.pickupTime); err != nil {
		return nil, err
	}
	if s.tripTime, err = register(reg, s.tripTime); err != nil {
		return nil, err
	}
	if s.candidates, err = register(reg, s.candidates); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, s.fleet); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch updates counters and travel time histograms.
func (s *PromSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	s.candidates.WithLabelValues("total").Observe(float64(rec.Candidates))
	s.candidates.WithLabelValues("routable").Observe(float64(rec.Routable))
	if rec.DriverID == "" {
		return nil
	}
	s.assignments.WithLabelValues(rec.DriverID).Inc()
	s.pickupTime.Observe(rec.PickupTime)
	if !rec.DestinationUnreachable {
		s.tripTime.Observe(rec.TripTime)
	}
	return nil
}

// RecordFleetSize sets the gauge to the number of tracked drivers.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}

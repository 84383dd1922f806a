package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchLatency *prometheus.HistogramVec
	dispatchTotal   *prometheus.CounterVec
	searchLatency   *prometheus.HistogramVec
	settledNodes    *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.HistogramVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridedispatch_dispatch_latency_seconds",
			Help:    "Wall time of a dispatch request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridedispatch_dispatch_total",
			Help: "Number of dispatch requests by outcome",
		},
		[]string{"outcome"},
	)
	search := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridedispatch_search_latency_seconds",
			Help:    "Wall time of a single shortest-path search",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"leg"},
	)
	settled := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridedispatch_search_settled_nodes",
			Help:    "Nodes settled by a single shortest-path search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"leg"},
	)
	return lat, total, search, settled
}

func init() {
	dispatchLatency, dispatchTotal, searchLatency, settledNodes = newCollectors()
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(dispatchLatency, dispatchTotal, searchLatency, settledNodes)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	dispatchLatency, dispatchTotal, searchLatency, settledNodes = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

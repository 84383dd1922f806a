// Package metrics defines the observability contracts of the dispatch core.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves with RegisterMetricsSink.
package metrics

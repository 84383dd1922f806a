package metrics

import "github.com/kilianp07/ridedispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty
	// serves metrics on the API server only.
	PrometheusAddr string `json:"prometheus_addr"`
}

package config

import (
	"fmt"
	"time"
)

// FleetConfig tunes the driver position tracker.
type FleetConfig struct {
	// MaxAgeSeconds drops positions older than this from dispatch. Zero keeps all.
	MaxAgeSeconds int `json:"max_age_seconds"`
	// PublishAssignments sends an MQTT assignment after each successful dispatch.
	PublishAssignments bool `json:"publish_assignments"`
}

func (c *FleetConfig) SetDefaults() {}

func (c FleetConfig) Validate() error {
	if c.MaxAgeSeconds < 0 {
		return fmt.Errorf("max_age_seconds must not be negative")
	}
	return nil
}

// MaxAge returns MaxAgeSeconds as a duration.
func (c FleetConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr                   string `json:"addr"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownTimeoutSeconds == 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

func (c ServerConfig) Validate() error {
	if c.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("shutdown_timeout_seconds must not be negative")
	}
	return nil
}

// SimulationConfig drives the batch simulator.
type SimulationConfig struct {
	Trials  int     `json:"trials"`
	Drivers int     `json:"drivers"`
	Spread  float64 `json:"spread_deg"`
	Seed    int64   `json:"seed"`
	// PublishPositions sends every simulated driver position through MQTT.
	PublishPositions bool `json:"publish_positions"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Trials == 0 {
		c.Trials = 100
	}
	if c.Drivers == 0 {
		c.Drivers = 5
	}
	if c.Spread == 0 {
		c.Spread = 0.01
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

func (c SimulationConfig) Validate() error {
	if c.Trials < 0 || c.Drivers < 0 {
		return fmt.Errorf("trials and drivers must not be negative")
	}
	if c.Spread < 0 {
		return fmt.Errorf("spread_deg must not be negative")
	}
	return nil
}

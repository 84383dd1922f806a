package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/factory"
	"github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/infra/graphio"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
)

// EnvPrefix prefixes environment overrides, e.g. RIDESIM_DISPATCH__TIE_BREAK.
const EnvPrefix = "RIDESIM_"

type Config struct {
	Graph      graphio.Config       `json:"graph"`
	Resolver   factory.ModuleConfig `json:"resolver"`
	Dispatch   dispatch.Config      `json:"dispatch"`
	Fleet      FleetConfig          `json:"fleet"`
	Server     ServerConfig         `json:"server"`
	MQTT       mqtt.Config          `json:"mqtt"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	Log        LogConfig            `json:"log"`
	Simulation SimulationConfig     `json:"simulation"`
}

// MQTTEnabled reports whether a broker is configured.
func (c Config) MQTTEnabled() bool { return c.MQTT.Broker != "" }

// Load reads the file at path and applies environment overrides. An empty
// path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Graph.SetDefaults()
	if c.Resolver.Type == "" {
		c.Resolver.Type = "rtree"
	}
	c.Dispatch.SetDefaults()
	c.Fleet.SetDefaults()
	c.Server.SetDefaults()
	if c.MQTTEnabled() {
		c.MQTT.SetDefaults()
	}
	c.Logging.SetDefaults()
	c.Log.SetDefaults()
	c.Simulation.SetDefaults()
}

// Validate checks every section and prefixes errors with the section name.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"graph", c.Graph.Validate},
		{"dispatch", c.Dispatch.Validate},
		{"fleet", c.Fleet.Validate},
		{"server", c.Server.Validate},
		{"logging", c.Logging.Validate},
		{"log", c.Log.Validate},
		{"simulation", c.Simulation.Validate},
	}
	if c.MQTTEnabled() {
		checks = append(checks, struct {
			name string
			fn   func() error
		}{"mqtt", c.MQTT.Validate})
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

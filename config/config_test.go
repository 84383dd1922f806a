package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/graph"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `graph:
  format: "osm"
  osm_path: "paris.osm"
  respect_oneway: true
  missing_refs: "drop"
resolver:
  type: "linear"
dispatch:
  average_speed_mps: 8.5
  tie_break: "last"
  max_pickup_radius_m: 3000
fleet:
  max_age_seconds: 60
  publish_assignments: true
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  qos:
    assignment: 1
metrics:
  sinks:
    - type: "nop"
logging:
  backend: "rotating"
  path: "logs/dispatch.jsonl"
log:
  level: "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"graph.format", cfg.Graph.Format, "osm"},
		{"graph.respect_oneway", cfg.Graph.RespectOneway, true},
		{"graph.missing_refs", cfg.Graph.MissingRefs, graph.DropMissing},
		{"resolver.type", cfg.Resolver.Type, "linear"},
		{"dispatch.speed", cfg.Dispatch.AverageSpeedMPS, 8.5},
		{"dispatch.tie_break", cfg.Dispatch.TieBreak, dispatch.TieBreakLast},
		{"dispatch.radius", cfg.Dispatch.MaxPickupRadiusM, 3000.0},
		{"fleet.max_age", cfg.Fleet.MaxAgeSeconds, 60},
		{"fleet.publish", cfg.Fleet.PublishAssignments, true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.MQTT.QoS["assignment"], byte(1)},
		{"mqtt.prefix default", cfg.MQTT.TopicPrefix, "ridesim"},
		{"metrics.sinks", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"logging.backend", cfg.Logging.Backend, "rotating"},
		{"logging.max_size default", cfg.Logging.MaxSizeMB, 50},
		{"log.level", cfg.Log.Level, "debug"},
		{"server.addr default", cfg.Server.Addr, ":8080"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.True(t, cfg.MQTTEnabled())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", `{}`))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Graph.Format)
	assert.Equal(t, "nodes.json", cfg.Graph.NodesPath)
	assert.Equal(t, "rtree", cfg.Resolver.Type)
	assert.Equal(t, dispatch.DefaultAverageSpeedMPS, cfg.Dispatch.AverageSpeedMPS)
	assert.Equal(t, dispatch.TieBreakFirst, cfg.Dispatch.TieBreak)
	assert.Equal(t, 5, cfg.Simulation.Drivers)
	assert.Equal(t, 0.01, cfg.Simulation.Spread)
	assert.False(t, cfg.MQTTEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RIDESIM_DISPATCH__TIE_BREAK", "last")
	t.Setenv("RIDESIM_DISPATCH__AVERAGE_SPEED_MPS", "20")
	t.Setenv("RIDESIM_SERVER__ADDR", ":9999")
	cfg, err := Load(writeConfig(t, "config.yaml", "dispatch:\n  tie_break: first\n"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.TieBreakLast, cfg.Dispatch.TieBreak)
	assert.Equal(t, 20.0, cfg.Dispatch.AverageSpeedMPS)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"tie break": "dispatch:\n  tie_break: random\n",
		"speed":     "dispatch:\n  average_speed_mps: -3\n",
		"format":    "graph:\n  format: shapefile\n",
		"backend":   "logging:\n  backend: sqlite\n",
		"level":     "log:\n  level: loud\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}

package graphio

import (
	"context"
	"fmt"
	"os"

	"github.com/kilianp07/ridedispatch/core/graph"
)

// Supported graph formats.
const (
	FormatJSON = "json"
	FormatOSM  = "osm"
)

// Config selects and locates the graph source.
type Config struct {
	Format    string `json:"format"`
	NodesPath string `json:"nodes_path"`
	GraphPath string `json:"graph_path"`
	OSMPath   string `json:"osm_path"`
	// MissingRefs is "reject" (default) or "drop".
	MissingRefs       graph.MissingRefPolicy `json:"missing_refs"`
	RespectOneway     bool                   `json:"respect_oneway"`
	KeepIsolatedNodes bool                   `json:"keep_isolated_nodes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if c.Format == FormatJSON {
		if c.NodesPath == "" {
			c.NodesPath = "nodes.json"
		}
		if c.GraphPath == "" {
			c.GraphPath = "graph.json"
		}
	}
	if c.MissingRefs == "" {
		c.MissingRefs = graph.RejectMissing
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Format {
	case FormatJSON:
		if c.NodesPath == "" || c.GraphPath == "" {
			return fmt.Errorf("graph: nodes_path and graph_path are required for json")
		}
	case FormatOSM:
		if c.OSMPath == "" {
			return fmt.Errorf("graph: osm_path is required for osm")
		}
	default:
		return fmt.Errorf("graph: unknown format %q", c.Format)
	}
	if c.MissingRefs != graph.RejectMissing && c.MissingRefs != graph.DropMissing {
		return fmt.Errorf("graph: unknown missing_refs policy %q", c.MissingRefs)
	}
	return nil
}

// Load opens the configured files and builds the store.
func Load(ctx context.Context, cfg Config) (*graph.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := graph.Options{MissingRefs: cfg.MissingRefs}
	if cfg.Format == FormatOSM {
		f, err := os.Open(cfg.OSMPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return LoadOSM(ctx, f, OSMOptions{
			Graph:             opts,
			RespectOneway:     cfg.RespectOneway,
			KeepIsolatedNodes: cfg.KeepIsolatedNodes,
		})
	}
	nf, err := os.Open(cfg.NodesPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = nf.Close() }()
	gf, err := os.Open(cfg.GraphPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gf.Close() }()
	return LoadJSON(nf, gf, opts)
}

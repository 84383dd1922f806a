package graphio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/core/geo"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
)

func ids(s *graph.Store) []model.NodeID {
	var out []model.NodeID
	for _, n := range s.Nodes() {
		out = append(out, n.ID)
	}
	return out
}

func TestLoadJSON_NodeOrder(t *testing.T) {
	nodes := `{"b": [0, 0], "10": [0, 1], "a": [0, 2], "2": [0, 3], "02": [0, 4]}`
	s, err := LoadJSON(strings.NewReader(nodes), strings.NewReader(`{}`), graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.NodeID{"2", "10", "b", "a", "02"}, ids(s))
}

func TestLoadJSON_Edges(t *testing.T) {
	nodes := `{"A": [0, 0], "B": [0, 1], "C": [0, 2]}`
	adj := `{"A": [["B", 5], ["C", 20]], "B": [["C", 5]], "C": [["B", 8]]}`
	s, err := LoadJSON(strings.NewReader(nodes), strings.NewReader(adj), graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{To: "B", Cost: 5}, {To: "C", Cost: 20}}, s.Neighbors("A"))
	assert.Equal(t, 4, s.EdgeCount())
}

func TestLoadJSON_Errors(t *testing.T) {
	tests := []struct {
		name, nodes, adj string
	}{
		{"nodes not an object", `[1, 2]`, `{}`},
		{"string coordinate", `{"A": ["0", 1]}`, `{}`},
		{"short position", `{"A": [0]}`, `{}`},
		{"duplicate id", `{"A": [0, 0], "A": [1, 1]}`, `{}`},
		{"latitude out of range", `{"A": [91, 0]}`, `{}`},
		{"edge not a pair", `{"A": [0, 0]}`, `{"A": [["A"]]}`},
		{"null cost", `{"A": [0, 0]}`, `{"A": [["A", null]]}`},
		{"numeric neighbor", `{"A": [0, 0]}`, `{"A": [[1, 2]]}`},
		{"negative cost", `{"A": [0, 0]}`, `{"A": [["A", -1]]}`},
		{"unknown neighbor", `{"A": [0, 0]}`, `{"A": [["Z", 1]]}`},
		{"truncated", `{"A": [0, 0]`, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(tt.nodes), strings.NewReader(tt.adj), graph.Options{})
			assert.ErrorIs(t, err, graph.ErrLoad)
		})
	}
}

func TestLoadJSON_DropPolicy(t *testing.T) {
	s, err := LoadJSON(strings.NewReader(`{"A": [0, 0]}`), strings.NewReader(`{"A": [["Z", 1]], "Y": [["A", 1]]}`),
		graph.Options{MissingRefs: graph.DropMissing})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Stats().DroppedEdges)
}

func TestWriteJSON_Reload(t *testing.T) {
	cases := []struct {
		name  string
		nodes string
		adj   string
	}{
		{
			name:  "integer ids",
			nodes: `{"1": [48.1, 2.1], "2": [48.2, 2.2]}`,
			adj:   `{"1": [["2", 12.5]], "2": [["1", 12.5]]}`,
		},
		{
			name:  "mixed ids keep load order",
			nodes: `{"b": [48.1, 2.1], "10": [48.1, 2.1], "a": [48.1, 2.1], "2": [48.2, 2.2], "4294967296": [48.3, 2.3]}`,
			adj:   `{"b": [["a", 3]], "a": [["b", 3], ["2", 7.5]], "4294967296": [["10", 1]]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := LoadJSON(strings.NewReader(tc.nodes), strings.NewReader(tc.adj), graph.Options{})
			require.NoError(t, err)

			var nb, gb bytes.Buffer
			require.NoError(t, WriteJSON(s, &nb, &gb))
			again, err := LoadJSON(&nb, &gb, graph.Options{})
			require.NoError(t, err)
			assert.Equal(t, ids(s), ids(again))
			for _, n := range s.Nodes() {
				assert.Equal(t, s.Neighbors(n.ID), again.Neighbors(n.ID), "neighbors of %s", n.ID)
			}
		})
	}
}

func TestWriteJSON_NonIntegerIDsNotSorted(t *testing.T) {
	s, err := LoadJSON(strings.NewReader(`{"zeta": [1, 1], "alpha": [1, 1]}`), strings.NewReader(`{}`), graph.Options{})
	require.NoError(t, err)
	require.Equal(t, []model.NodeID{"zeta", "alpha"}, ids(s))

	var nb, gb bytes.Buffer
	require.NoError(t, WriteJSON(s, &nb, &gb))
	assert.Equal(t, "{\"zeta\":[1,1],\"alpha\":[1,1]}\n", nb.String())
	assert.Equal(t, "{}\n", gb.String())
}

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="3" lat="48.8600" lon="2.3500"/>
  <node id="1" lat="48.8500" lon="2.3500"/>
  <node id="2" lat="48.8550" lon="2.3500"/>
  <node id="4" lat="48.8700" lon="2.3600"/>
  <node id="5" lat="48.8800" lon="2.3700"/>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="11">
    <nd ref="3"/><nd ref="4"/>
    <tag k="highway" v="primary"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="12">
    <nd ref="4"/><nd ref="5"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="13">
    <nd ref="4"/><nd ref="99"/>
    <tag k="highway" v="service"/>
  </way>
</osm>`

func TestLoadOSM(t *testing.T) {
	s, err := LoadOSM(context.Background(), strings.NewReader(sampleOSM), OSMOptions{})
	require.NoError(t, err)

	assert.Equal(t, []model.NodeID{"1", "2", "3", "4"}, ids(s), "node 5 is not on a road")
	p1, _ := s.Position("1")
	p2, _ := s.Position("2")
	require.Len(t, s.Neighbors("1"), 1)
	assert.InDelta(t, geo.Haversine(p1, p2), s.Neighbors("1")[0].Cost, 1e-9)
	assert.Len(t, s.Neighbors("2"), 2)
	assert.Len(t, s.Neighbors("4"), 1, "oneway ignored by default")
}

func TestLoadOSM_Options(t *testing.T) {
	s, err := LoadOSM(context.Background(), strings.NewReader(sampleOSM), OSMOptions{RespectOneway: true, KeepIsolatedNodes: true})
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
	assert.Empty(t, s.Neighbors("4"))
	assert.Len(t, s.Neighbors("3"), 2)
}

func TestLoad_FromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.json"), []byte(`{"A": [0, 0], "B": [0, 1]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph.json"), []byte(`{"A": [["B", 3]]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.osm"), []byte(sampleOSM), 0o644))

	s, err := Load(context.Background(), Config{NodesPath: filepath.Join(dir, "nodes.json"), GraphPath: filepath.Join(dir, "graph.json")})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s, err = Load(context.Background(), Config{Format: FormatOSM, OSMPath: filepath.Join(dir, "map.osm")})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())

	_, err = Load(context.Background(), Config{Format: "pbf"})
	assert.Error(t, err)
	_, err = Load(context.Background(), Config{NodesPath: filepath.Join(dir, "missing.json"), GraphPath: filepath.Join(dir, "graph.json")})
	assert.Error(t, err)
}

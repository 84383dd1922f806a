package graphio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
)

// LoadJSON reads the nodes.json and graph.json documents and builds a store.
//
// Nodes are ordered the way an insertion-ordered object iterates: ids that
// are canonical unsigned integers first, ascending, then the remaining ids in
// file order. That order drives nearest-node tie-breaks.
func LoadJSON(nodesR, graphR io.Reader, opts graph.Options) (*graph.Store, error) {
	nodes, err := decodeNodes(nodesR)
	if err != nil {
		return nil, err
	}
	adj, err := decodeAdjacency(graphR)
	if err != nil {
		return nil, err
	}
	return graph.New(nodes, adj, opts)
}

func loadErr(id model.NodeID, format string, args ...any) error {
	return &graph.LoadError{Node: id, Reason: fmt.Sprintf(format, args...)}
}

// objectEntries walks the top-level object of r and calls fn for each key in
// file order.
func objectEntries(r io.Reader, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	tok, err := dec.Token()
	if err != nil {
		return loadErr("", "read document: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return loadErr("", "document must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return loadErr("", "read key: %v", err)
		}
		key := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return loadErr(model.NodeID(key), "read value: %v", err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return loadErr("", "read document end: %v", err)
	}
	return nil
}

func decodeNodes(r io.Reader) ([]model.Node, error) {
	var nodes []model.Node
	seen := map[model.NodeID]bool{}
	err := objectEntries(r, func(key string, raw json.RawMessage) error {
		id := model.NodeID(key)
		if seen[id] {
			return loadErr(id, "duplicate node id")
		}
		seen[id] = true
		var pair []any
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return loadErr(id, "position must be [lat, lon]")
		}
		lat, ok1 := pair[0].(float64)
		lon, ok2 := pair[1].(float64)
		if !ok1 || !ok2 {
			return loadErr(id, "position is not numeric")
		}
		nodes = append(nodes, model.Node{ID: id, Position: model.Position{Lat: lat, Lon: lon}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNodes(nodes)
	return nodes, nil
}

func decodeAdjacency(r io.Reader) (map[model.NodeID][]model.Edge, error) {
	adj := map[model.NodeID][]model.Edge{}
	err := objectEntries(r, func(key string, raw json.RawMessage) error {
		from := model.NodeID(key)
		var entries [][]any
		if err := json.Unmarshal(raw, &entries); err != nil {
			return loadErr(from, "adjacency must be a list of [neighbor, cost] pairs")
		}
		edges := make([]model.Edge, 0, len(entries))
		for i, e := range entries {
			if len(e) != 2 {
				return loadErr(from, "edge %d must be [neighbor, cost]", i)
			}
			to, ok := e[0].(string)
			if !ok {
				return loadErr(from, "edge %d neighbor is not a string", i)
			}
			cost, ok := e[1].(float64)
			if !ok {
				return loadErr(from, "edge %d cost is not numeric", i)
			}
			edges = append(edges, model.Edge{To: model.NodeID(to), Cost: cost})
		}
		adj[from] = append(adj[from], edges...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// arrayIndex reports whether id is a canonical unsigned integer below 2^32-1.
func arrayIndex(id model.NodeID) (uint64, bool) {
	s := string(id)
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n >= math.MaxUint32 {
		return 0, false
	}
	return n, true
}

func sortNodes(nodes []model.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, aok := arrayIndex(nodes[i].ID)
		b, bok := arrayIndex(nodes[j].ID)
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return false
		}
	})
}

// WriteJSON writes s as a nodes.json and graph.json pair. Keys follow the
// load order of s so that a reload keeps nearest-node tie-breaks.
func WriteJSON(s *graph.Store, nodesW, graphW io.Writer) error {
	nodes := newObjectWriter()
	adj := newObjectWriter()
	for _, n := range s.Nodes() {
		if err := nodes.add(string(n.ID), [2]float64{n.Position.Lat, n.Position.Lon}); err != nil {
			return fmt.Errorf("write nodes: %w", err)
		}
		edges := s.Neighbors(n.ID)
		if len(edges) == 0 {
			continue
		}
		out := make([][2]any, 0, len(edges))
		for _, e := range edges {
			out = append(out, [2]any{string(e.To), e.Cost})
		}
		if err := adj.add(string(n.ID), out); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
	}
	if _, err := nodes.writeTo(nodesW); err != nil {
		return fmt.Errorf("write nodes: %w", err)
	}
	if _, err := adj.writeTo(graphW); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// objectWriter builds a JSON object whose keys keep insertion order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) add(key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.n++
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(val)
	return nil
}

func (w *objectWriter) writeTo(dst io.Writer) (int64, error) {
	w.buf.WriteString("}\n")
	return w.buf.WriteTo(dst)
}

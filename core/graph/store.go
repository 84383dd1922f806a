// Package graph holds the immutable road network used by the routing engine.
package graph

import (
	"math"

	"github.com/kilianp07/ridedispatch/core/model"
)

// MissingRefPolicy selects how edges referencing unknown nodes are handled.
type MissingRefPolicy string

const (
	// RejectMissing fails construction with a LoadError.
	RejectMissing MissingRefPolicy = "reject"
	// DropMissing silently skips the offending edge.
	DropMissing MissingRefPolicy = "drop"
)

// Options configures Store construction.
type Options struct {
	MissingRefs MissingRefPolicy `json:"missing_refs"`
}

// Stats summarizes a loaded graph.
type Stats struct {
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	DroppedEdges int `json:"dropped_edges"`
}

// Store holds node positions and adjacency lists. It is never modified after
// New returns and can be shared by concurrent readers.
type Store struct {
	nodes []model.Node
	index map[model.NodeID]int
	adj   map[model.NodeID][]model.Edge
	stats Stats
}

// New validates the supplied data and builds a Store. nodes keeps its order,
// which is the iteration order used for nearest-node tie-breaks. Adjacency
// lists keep the order of the input slices.
//
//gocyclo:ignore
func New(nodes []model.Node, adjacency map[model.NodeID][]model.Edge, opts Options) (*Store, error) {
	policy := opts.MissingRefs
	if policy == "" {
		policy = RejectMissing
	}
	if policy != RejectMissing && policy != DropMissing {
		return nil, loadErrorf("", "unknown missing reference policy %q", policy)
	}

	s := &Store{
		nodes: make([]model.Node, 0, len(nodes)),
		index: make(map[model.NodeID]int, len(nodes)),
		adj:   make(map[model.NodeID][]model.Edge, len(adjacency)),
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, loadErrorf("", "empty node id")
		}
		if _, dup := s.index[n.ID]; dup {
			return nil, loadErrorf(n.ID, "duplicate node id")
		}
		if err := n.Position.Validate(); err != nil {
			return nil, loadErrorf(n.ID, "%v", err)
		}
		s.index[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}

	for from, edges := range adjacency {
		if _, ok := s.index[from]; !ok {
			if policy == RejectMissing {
				return nil, loadErrorf(from, "adjacency list for unknown node")
			}
			s.stats.DroppedEdges += len(edges)
			continue
		}
		kept := make([]model.Edge, 0, len(edges))
		for _, e := range edges {
			if math.IsNaN(e.Cost) || math.IsInf(e.Cost, 0) || e.Cost < 0 {
				return nil, loadErrorf(from, "edge to %q has invalid cost %v", e.To, e.Cost)
			}
			if _, ok := s.index[e.To]; !ok {
				if policy == RejectMissing {
					return nil, loadErrorf(from, "edge to unknown node %q", e.To)
				}
				s.stats.DroppedEdges++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			s.adj[from] = kept
			s.stats.Edges += len(kept)
		}
	}
	s.stats.Nodes = len(s.nodes)
	return s, nil
}

// Has reports whether id is a node of the graph.
func (s *Store) Has(id model.NodeID) bool {
	_, ok := s.index[id]
	return ok
}

// Position returns the position of the node.
func (s *Store) Position(id model.NodeID) (model.Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Position{}, false
	}
	return s.nodes[i].Position, true
}

// Neighbors returns the outgoing edges of id. The result is empty for unknown
// nodes and must not be modified.
func (s *Store) Neighbors(id model.NodeID) []model.Edge {
	return s.adj[id]
}

// Nodes returns the nodes in load order. The result must not be modified.
func (s *Store) Nodes() []model.Node { return s.nodes }

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) }

// EdgeCount returns the number of stored edges.
func (s *Store) EdgeCount() int { return s.stats.Edges }

// Stats returns load statistics.
func (s *Store) Stats() Stats { return s.stats }

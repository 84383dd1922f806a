// Package routing computes minimum-cost paths over the road network.
//
// Edge costs must be non-negative. Negative costs are not detected and give
// undefined results; graph.New rejects them at load time.
package routing

import (
	"container/heap"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Graph is the read-only view of the road network needed by the engine.
type Graph interface {
	Has(id model.NodeID) bool
	Neighbors(id model.NodeID) []model.Edge
}

// Route is the outcome of a search.
type Route struct {
	Path    model.Path `json:"path"`
	Cost    float64    `json:"cost"`
	Settled int        `json:"settled"`
}

// Found reports whether the search reached the target.
func (r Route) Found() bool { return len(r.Path) > 0 }

// ShortestPath returns the minimum-cost path from source to target, or an
// empty path when target is unreachable or either node is not in g.
func ShortestPath(g Graph, source, target model.NodeID) model.Path {
	return Search(g, source, target).Path
}

// Search runs Dijkstra from source and stops as soon as target is settled.
// All working state is local to the call.
func Search(g Graph, source, target model.NodeID) Route {
	if !g.Has(source) || !g.Has(target) {
		return Route{}
	}
	if source == target {
		return Route{Path: model.Path{source}}
	}

	dist := map[model.NodeID]float64{source: 0}
	prev := map[model.NodeID]model.NodeID{}
	visited := map[model.NodeID]bool{}
	pq := &frontier{}
	heap.Push(pq, frontierItem{node: source, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		u := cur.node
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == target {
			break
		}
		for _, e := range g.Neighbors(u) {
			nd := dist[u] + e.Cost
			if old, seen := dist[e.To]; !seen || nd < old {
				dist[e.To] = nd
				prev[e.To] = u
				heap.Push(pq, frontierItem{node: e.To, dist: nd})
			}
		}
	}

	if !visited[target] {
		return Route{Settled: len(visited)}
	}
	return Route{
		Path:    reconstruct(prev, source, target),
		Cost:    dist[target],
		Settled: len(visited),
	}
}

func reconstruct(prev map[model.NodeID]model.NodeID, source, target model.NodeID) model.Path {
	path := model.Path{}
	for cur := target; ; {
		path = append(path, cur)
		if cur == source {
			break
		}
		p, ok := prev[cur]
		if !ok {
			return model.Path{}
		}
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

package routing

import "github.com/kilianp07/ridedispatch/core/model"

// PathCost sums the adjacency cost of every consecutive pair of path. When the
// adjacency list holds parallel edges the cheapest one counts. A pair without
// a matching edge contributes 0; paths built by Search on the same graph
// always match.
func PathCost(path model.Path, g Graph) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		if c, ok := EdgeCost(g, path[i], path[i+1]); ok {
			total += c
		}
	}
	return total
}

// EdgeCost returns the cheapest cost of the edge from -> to.
func EdgeCost(g Graph, from, to model.NodeID) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, e := range g.Neighbors(from) {
		if e.To == to && (!found || e.Cost < best) {
			best, found = e.Cost, true
		}
	}
	return best, found
}

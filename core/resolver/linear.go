package resolver

import (
	"math"

	"github.com/kilianp07/ridedispatch/core/geo"
	"github.com/kilianp07/ridedispatch/core/model"
)

// NodeSource provides the nodes to scan in a deterministic order.
type NodeSource interface {
	Nodes() []model.Node
}

// Linear scans every node for each query. It is O(n) and meant for graphs of
// hundreds to a few thousand nodes.
type Linear struct {
	src NodeSource
}

// NewLinear returns a Linear resolver over src.
func NewLinear(src NodeSource) *Linear { return &Linear{src: src} }

// Resolve implements Resolver.
func (l *Linear) Resolve(pos model.Position) (model.NodeID, error) {
	m, err := l.Nearest(pos)
	if err != nil {
		return "", err
	}
	return m.Node.ID, nil
}

// Nearest implements Matcher.
func (l *Linear) Nearest(pos model.Position) (Match, error) {
	return scan(l.src.Nodes(), pos)
}

func scan(nodes []model.Node, pos model.Position) (Match, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, n := range nodes {
		d := geo.Haversine(pos, n.Position)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return Match{}, ErrNotFound
	}
	return Match{Node: nodes[best], Distance: bestDist}, nil
}

package resolver

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/kilianp07/ridedispatch/core/geo"
	"github.com/kilianp07/ridedispatch/core/model"
)

const (
	// pointTolerance is the half-size in degrees of the box stored for each node.
	pointTolerance = 1e-9
	// searchSlack widens the great-circle search radius to absorb rounding.
	searchSlack = 1e-3
)

type nodeEntry struct {
	ord  int
	node model.Node
	rect rtreego.Rect
}

func (e *nodeEntry) Bounds() rtreego.Rect { return e.rect }

// RTree resolves positions using an R-tree over node coordinates. The planar
// nearest neighbour gives an upper bound on the answer; every node inside the
// great-circle bounding box of that radius is then compared by haversine
// distance, so the result is the same node Linear would return.
type RTree struct {
	tree  *rtreego.Rtree
	nodes []model.Node
}

// NewRTree bulk-loads the nodes of src into an R-tree.
func NewRTree(src NodeSource) *RTree {
	nodes := src.Nodes()
	objs := make([]rtreego.Spatial, 0, len(nodes))
	for i, n := range nodes {
		objs = append(objs, &nodeEntry{
			ord:  i,
			node: n,
			rect: rtreego.Point{n.Position.Lat, n.Position.Lon}.ToRect(pointTolerance),
		})
	}
	return &RTree{tree: rtreego.NewTree(2, 25, 50, objs...), nodes: nodes}
}

// Resolve implements Resolver.
func (r *RTree) Resolve(pos model.Position) (model.NodeID, error) {
	m, err := r.Nearest(pos)
	if err != nil {
		return "", err
	}
	return m.Node.ID, nil
}

// Nearest implements Matcher.
func (r *RTree) Nearest(pos model.Position) (Match, error) {
	if len(r.nodes) == 0 {
		return Match{}, ErrNotFound
	}
	if pos.Validate() != nil {
		return scan(r.nodes, pos)
	}
	seed, ok := r.tree.NearestNeighbor(rtreego.Point{pos.Lat, pos.Lon}).(*nodeEntry)
	if !ok || seed == nil {
		return scan(r.nodes, pos)
	}
	radius := geo.Haversine(pos, seed.node.Position) + searchSlack
	minLat, minLon, maxLat, maxLon, ok := geo.BoundingBox(pos, radius)
	if !ok {
		return scan(r.nodes, pos)
	}
	box, err := rtreego.NewRect(
		rtreego.Point{minLat - pointTolerance, minLon - pointTolerance},
		[]float64{maxLat - minLat + 2*pointTolerance, maxLon - minLon + 2*pointTolerance},
	)
	if err != nil {
		return scan(r.nodes, pos)
	}

	best := seed
	bestDist := geo.Haversine(pos, seed.node.Position)
	for _, item := range r.tree.SearchIntersect(box) {
		e := item.(*nodeEntry)
		d := geo.Haversine(pos, e.node.Position)
		if d < bestDist || (d == bestDist && e.ord < best.ord) {
			best, bestDist = e, d
		}
	}
	if math.IsNaN(bestDist) {
		return Match{}, ErrNotFound
	}
	return Match{Node: best.node, Distance: bestDist}, nil
}

package graphio

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"github.com/kilianp07/ridedispatch/core/geo"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
)

// OSMOptions tunes how an OSM extract becomes a graph.
type OSMOptions struct {
	Graph graph.Options
	// RespectOneway emits a single direction for ways tagged oneway.
	RespectOneway bool
	// KeepIsolatedNodes keeps nodes that no highway references.
	KeepIsolatedNodes bool
}

type segment struct {
	from, to osm.NodeID
}

// LoadOSM streams an OSM XML document and builds a store from the ways
// tagged highway. Consecutive way nodes are linked in both directions with
// their great-circle distance as cost. Segments that reference nodes absent
// from the document are skipped. Nodes are ordered by ascending OSM id.
func LoadOSM(ctx context.Context, r io.Reader, opts OSMOptions) (*graph.Store, error) {
	positions := map[osm.NodeID]model.Position{}
	var segments []segment

	scanner := osmxml.New(ctx, r)
	defer func() { _ = scanner.Close() }()
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			positions[o.ID] = model.Position{Lat: o.Lat, Lon: o.Lon}
		case *osm.Way:
			if o.Tags.Find("highway") == "" {
				continue
			}
			forward, backward := true, true
			if opts.RespectOneway {
				switch o.Tags.Find("oneway") {
				case "yes", "1", "true":
					backward = false
				case "-1", "reverse":
					forward = false
				}
			}
			for i := 1; i < len(o.Nodes); i++ {
				a, b := o.Nodes[i-1].ID, o.Nodes[i].ID
				if forward {
					segments = append(segments, segment{a, b})
				}
				if backward {
					segments = append(segments, segment{b, a})
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &graph.LoadError{Reason: fmt.Sprintf("osm: %v", err)}
	}

	used := map[osm.NodeID]bool{}
	adj := map[model.NodeID][]model.Edge{}
	for _, s := range segments {
		pa, okA := positions[s.from]
		pb, okB := positions[s.to]
		if !okA || !okB {
			continue
		}
		used[s.from], used[s.to] = true, true
		from := nodeID(s.from)
		adj[from] = append(adj[from], model.Edge{To: nodeID(s.to), Cost: geo.Haversine(pa, pb)})
	}

	ids := make([]osm.NodeID, 0, len(positions))
	for id := range positions {
		if opts.KeepIsolatedNodes || used[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	nodes := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, model.Node{ID: nodeID(id), Position: positions[id]})
	}
	return graph.New(nodes, adj, opts.Graph)
}

func nodeID(id osm.NodeID) model.NodeID {
	return model.NodeID(strconv.FormatInt(int64(id), 10))
}

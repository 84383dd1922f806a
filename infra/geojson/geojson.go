// Package geojson renders dispatch results as GeoJSON feature collections.
package geojson

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/model"
)

// PositionLookup returns the position of a graph node.
type PositionLookup interface {
	Position(id model.NodeID) (model.Position, bool)
}

func point(p model.Position) orb.Point { return orb.Point{p.Lon, p.Lat} }

// LineString maps a path to its node coordinates. Unknown nodes are skipped.
func LineString(path model.Path, g PositionLookup) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, id := range path {
		if p, ok := g.Position(id); ok {
			ls = append(ls, point(p))
		}
	}
	return ls
}

// FromResult builds a collection with the rider, destination and driver
// points followed by the pickup and trip lines. Lines with fewer than two
// points are omitted.
func FromResult(req dispatch.Request, res dispatch.Result, g PositionLookup) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	rider := geojson.NewFeature(point(req.Rider))
	rider.Properties["role"] = "rider"
	rider.Properties["node"] = string(res.RiderNode)
	fc.Append(rider)

	dest := geojson.NewFeature(point(req.Destination))
	dest.Properties["role"] = "destination"
	dest.Properties["node"] = string(res.DestinationNode)
	dest.Properties["unreachable"] = res.DestinationUnreachable
	fc.Append(dest)

	if res.Driver.ID != "" {
		drv := geojson.NewFeature(point(res.Driver.Position))
		drv.Properties["role"] = "driver"
		drv.Properties["driver_id"] = res.Driver.ID
		fc.Append(drv)
	}

	if ls := LineString(res.PickupPath, g); len(ls) >= 2 {
		f := geojson.NewFeature(ls)
		f.Properties["role"] = "pickup"
		f.Properties["distance_m"] = res.PickupDistance
		f.Properties["time_s"] = res.PickupTime
		fc.Append(f)
	}
	if ls := LineString(res.TripPath, g); len(ls) >= 2 {
		f := geojson.NewFeature(ls)
		f.Properties["role"] = "trip"
		f.Properties["distance_m"] = res.TripDistance
		f.Properties["time_s"] = res.TripTime
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"request_id":   res.RequestID,
		"total_time_s": res.TotalTime(),
	}
	return fc
}

// Package simulator generates synthetic drivers and ride requests and runs
// them through the dispatcher in batch.
package simulator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Scatter places n drivers uniformly in a square of side spread degrees
// centred on center. Latitudes are clamped to the valid range and longitudes
// wrapped across the antimeridian. IDs are drv0001..drvNNNN.
func Scatter(center model.Position, n int, spread float64, rng *rand.Rand) []model.Driver {
	if n <= 0 {
		return nil
	}
	out := make([]model.Driver, n)
	for i := range out {
		lat := center.Lat + (rng.Float64()-0.5)*spread
		lon := center.Lon + (rng.Float64()-0.5)*spread
		out[i] = model.Driver{
			ID:       fmt.Sprintf("drv%04d", i+1),
			Position: model.Position{Lat: math.Max(-90, math.Min(90, lat)), Lon: wrapLon(lon)},
		}
	}
	return out
}

func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

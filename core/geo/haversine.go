// Package geo provides great-circle helpers used for nearest-node matching.
package geo

import (
	"math"

	"github.com/kilianp07/ridedispatch/core/model"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b model.Position) float64 {
	phi1 := Radians(a.Lat)
	phi2 := Radians(b.Lat)
	dPhi := Radians(b.Lat - a.Lat)
	dLambda := Radians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// BoundingBox returns the latitude/longitude box containing every point at
// most radius meters away from center. ok is false when the box would cross a
// pole or the antimeridian; callers must then fall back to a full scan.
func BoundingBox(center model.Position, radius float64) (minLat, minLon, maxLat, maxLon float64, ok bool) {
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return 0, 0, 0, 0, false
	}
	angular := radius / EarthRadiusMeters
	dLat := Degrees(angular)
	minLat, maxLat = center.Lat-dLat, center.Lat+dLat
	if minLat <= -90 || maxLat >= 90 {
		return 0, 0, 0, 0, false
	}
	cosLat := math.Cos(Radians(center.Lat))
	s := math.Sin(angular)
	if s >= cosLat {
		return 0, 0, 0, 0, false
	}
	dLon := Degrees(math.Asin(s / cosLat))
	minLon, maxLon = center.Lon-dLon, center.Lon+dLon
	if minLon < -180 || maxLon > 180 {
		return 0, 0, 0, 0, false
	}
	return minLat, minLon, maxLat, maxLon, true
}

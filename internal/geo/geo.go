// Package geo provides the distance and bounding-box primitives used by the
// proximity search engine. Points are WGS84 decimal degrees, carried as
// orb.Point values (lon/lat order, per the orb convention).
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMiles is the spherical-earth radius used for all distance
// computation. Distances everywhere in this service are in miles.
const EarthRadiusMiles = 3958.8

// milesPerLatDegree is the north-south span of one degree of latitude.
var milesPerLatDegree = EarthRadiusMiles * math.Pi / 180.0

// NewPoint builds an orb.Point from latitude and longitude in that order.
// orb stores points as (lon, lat); every constructor call site in this
// codebase goes through here to avoid swapped-argument bugs.
func NewPoint(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine returns the great-circle distance between a and b in miles,
// using the spherical-earth approximation.
func Haversine(a, b orb.Point) float64 {
	lat1 := radians(a.Lat())
	lat2 := radians(b.Lat())
	dLat := radians(b.Lat() - a.Lat())
	dLng := radians(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

// BoundFor returns the axis-aligned lat/lng rectangle enclosing the circle
// of radiusMiles around center. It over-approximates: every point within
// radiusMiles lies inside the bound, but the bound's corners lie outside the
// circle. Callers must re-check candidates with Haversine.
//
// The longitude offset applies a cos(latitude) correction, since a degree of
// longitude shrinks towards the poles. Near the poles the correction factor
// approaches zero; the offset is clamped to cover the full longitude range
// there rather than dividing by zero.
func BoundFor(center orb.Point, radiusMiles float64) orb.Bound {
	if radiusMiles < 0 {
		radiusMiles = 0
	}

	dLat := radiusMiles / milesPerLatDegree

	dLng := 180.0
	if cosLat := math.Cos(radians(center.Lat())); cosLat > 1e-9 {
		dLng = radiusMiles / (milesPerLatDegree * cosLat)
		if dLng > 180.0 {
			dLng = 180.0
		}
	}

	return orb.Bound{
		Min: orb.Point{center.Lon() - dLng, center.Lat() - dLat},
		Max: orb.Point{center.Lon() + dLng, center.Lat() + dLat},
	}
}

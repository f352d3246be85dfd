package geo_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"gigmate/matching-service/internal/geo"
)

var (
	london     = geo.NewPoint(51.5074, -0.1278)
	birmingham = geo.NewPoint(52.4862, -1.8904)
	edinburgh  = geo.NewPoint(55.9533, -3.1883)
	cityPoint  = geo.NewPoint(51.5155, -0.0922) // ~1.7 mi from the London point
)

// ── Haversine ──────────────────────────────────────────────────────────────

func TestHaversine_Zero(t *testing.T) {
	if d := geo.Haversine(london, london); d != 0 {
		t.Errorf("Haversine(A, A) = %v, want 0", d)
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	pairs := [][2]orb.Point{
		{london, birmingham},
		{london, edinburgh},
		{birmingham, edinburgh},
		{london, cityPoint},
	}
	for _, p := range pairs {
		ab := geo.Haversine(p[0], p[1])
		ba := geo.Haversine(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Haversine(%v, %v) = %v but reverse = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	cases := []struct {
		name string
		a, b orb.Point
		want float64 // miles
		tol  float64
	}{
		{"London-Birmingham", london, birmingham, 101, 2},
		{"London-Edinburgh", london, edinburgh, 332, 3},
		{"London-City", london, cityPoint, 1.7, 0.3},
	}
	for _, c := range cases {
		got := geo.Haversine(c.a, c.b)
		if math.Abs(got-c.want) > c.tol {
			t.Errorf("%s: Haversine = %.2f mi, want %.0f±%.0f", c.name, got, c.want, c.tol)
		}
	}
}

func TestHaversine_MeridianDistance(t *testing.T) {
	// Along a meridian the haversine result is exactly the arc length, so a
	// point offset by (miles / earth radius) radians of latitude must come
	// back at that distance.
	const miles = 10.0
	deltaDeg := miles / geo.EarthRadiusMiles * 180 / math.Pi
	p := geo.NewPoint(london.Lat()+deltaDeg, london.Lon())

	if got := geo.Haversine(london, p); math.Abs(got-miles) > 1e-6 {
		t.Errorf("meridian distance = %v, want %v", got, miles)
	}
}

// ── BoundFor ───────────────────────────────────────────────────────────────

// TestBoundFor_SupersetProperty checks that no point within the radius is
// excluded by the bounding box, sampling bearings around the circle at and
// inside the radius.
func TestBoundFor_SupersetProperty(t *testing.T) {
	centers := []orb.Point{london, edinburgh, geo.NewPoint(60.0, -1.0)}
	radii := []float64{1, 10, 50}

	for _, center := range centers {
		for _, radius := range radii {
			bound := geo.BoundFor(center, radius)
			for bearing := 0.0; bearing < 360; bearing += 15 {
				for _, frac := range []float64{0.25, 0.75, 0.999} {
					p := pointAt(center, radius*frac, bearing)
					if d := geo.Haversine(center, p); d > radius {
						t.Fatalf("test point generator broken: %v mi > %v", d, radius)
					}
					if !bound.Contains(p) {
						t.Errorf("center %v r=%v: point %v (bearing %v) inside radius but outside bound %v",
							center, radius, p, bearing, bound)
					}
				}
			}
		}
	}
}

func TestBoundFor_LongitudeCorrection(t *testing.T) {
	// The longitude half-width must grow with latitude: the same radius
	// spans more degrees of longitude in Edinburgh than on the equator.
	const radius = 10.0
	equator := geo.BoundFor(geo.NewPoint(0, 0), radius)
	north := geo.BoundFor(geo.NewPoint(55.9533, -3.1883), radius)

	equatorWidth := equator.Right() - equator.Left()
	northWidth := north.Right() - north.Left()
	if northWidth <= equatorWidth {
		t.Errorf("lng span at 56°N (%v) should exceed span at equator (%v)", northWidth, equatorWidth)
	}

	// Latitude half-height is latitude-independent.
	if math.Abs((equator.Top()-equator.Bottom())-(north.Top()-north.Bottom())) > 1e-9 {
		t.Error("lat span should not depend on latitude")
	}
}

func TestBoundFor_NearPole(t *testing.T) {
	bound := geo.BoundFor(geo.NewPoint(89.9999, 0), 50)
	if bound.Right()-bound.Left() < 360-1e-6 {
		t.Errorf("near-pole bound should cover all longitudes, got %v..%v", bound.Left(), bound.Right())
	}
}

func TestBoundFor_NegativeRadius(t *testing.T) {
	bound := geo.BoundFor(london, -5)
	if bound.Left() != bound.Right() || bound.Top() != bound.Bottom() {
		t.Errorf("negative radius should collapse to the center point, got %v", bound)
	}
}

// pointAt returns the point radiusMiles away from center at the given
// bearing (degrees clockwise from north), using the spherical direct formula.
func pointAt(center orb.Point, radiusMiles, bearingDeg float64) orb.Point {
	lat1 := center.Lat() * math.Pi / 180
	lng1 := center.Lon() * math.Pi / 180
	brg := bearingDeg * math.Pi / 180
	d := radiusMiles / geo.EarthRadiusMiles

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lng2 := lng1 + math.Atan2(
		math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return geo.NewPoint(lat2*180/math.Pi, lng2*180/math.Pi)
}

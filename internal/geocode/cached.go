package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"gigmate/matching-service/internal/cache"
)

// DefaultCacheTTL is how long resolved coordinates stay cached. Postcodes
// and addresses do not move, so hours is conservative.
const DefaultCacheTTL = 12 * time.Hour

// CachedGeocoder wraps a Geocoder with a read-through cache keyed by the
// normalized location text. Only successful resolutions are cached; a
// NotFound is cheap to re-ask and callers may retry with corrected input.
type CachedGeocoder struct {
	inner Geocoder
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedGeocoder wraps inner with c. A zero ttl selects DefaultCacheTTL.
func NewCachedGeocoder(inner Geocoder, c *cache.Cache, ttl time.Duration) *CachedGeocoder {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGeocoder{inner: inner, cache: c, ttl: ttl}
}

func geocodeKey(locationText string) string {
	return fmt.Sprintf("geocode:%s", Normalize(locationText))
}

// Geocode resolves locationText, consulting the cache first.
func (g *CachedGeocoder) Geocode(ctx context.Context, locationText string) (orb.Point, error) {
	key := geocodeKey(locationText)

	var cached [2]float64 // lat, lng
	if err := g.cache.Get(ctx, key, &cached); err == nil {
		return orb.Point{cached[1], cached[0]}, nil
	}

	point, err := g.inner.Geocode(ctx, locationText)
	if err != nil {
		return orb.Point{}, err
	}

	_ = g.cache.Set(ctx, key, [2]float64{point.Lat(), point.Lon()}, g.ttl) // fail-open
	return point, nil
}

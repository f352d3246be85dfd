// Package geocode resolves freeform postcodes/addresses to coordinates via
// an external lookup service, with a cache in front since postcodes do not
// move.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/paulmach/orb"
)

// ErrNotFound reports that the service could not resolve the input. It is a
// client-input condition, not a collaborator fault; timeouts and 5xx come
// back as ordinary errors instead.
var ErrNotFound = errors.New("geocode: location not found")

// Geocoder resolves a freeform location string to a WGS84 point.
type Geocoder interface {
	Geocode(ctx context.Context, locationText string) (orb.Point, error)
}

// Normalize canonicalizes location text for use as a cache key: lowercase
// with whitespace runs collapsed to single spaces.
func Normalize(locationText string) string {
	return strings.Join(strings.Fields(strings.ToLower(locationText)), " ")
}

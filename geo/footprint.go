// Package geo builds the footprint encodings the imagery catalogs expect:
// a WKT polygon string for the Sentinel-style API and a numeric bounding
// box tuple for the Landsat-style API. Both always describe the same
// axis-aligned bounding box.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Footprint is a dual-encoded view of an area of interest.
type Footprint struct {
	bound orb.Bound
}

// FromGeometry derives a footprint from the bounding box of any geometry.
func FromGeometry(g orb.Geometry) Footprint {
	return Footprint{bound: g.Bound()}
}

// FromBound wraps an existing bound.
func FromBound(b orb.Bound) Footprint {
	return Footprint{bound: b}
}

// WKT returns the footprint as a closed WKT polygon ring in the order
// (max,max) (max,min) (min,min) (min,max) (max,max).
func (f Footprint) WKT() string {
	return boundsWKT(f.bound.Min[0], f.bound.Min[1], f.bound.Max[0], f.bound.Max[1])
}

// BBox returns the footprint as (minLon, minLat, maxLon, maxLat).
func (f Footprint) BBox() [4]float64 {
	return [4]float64{f.bound.Min[0], f.bound.Min[1], f.bound.Max[0], f.bound.Max[1]}
}

// Bound returns the underlying orb bound.
func (f Footprint) Bound() orb.Bound {
	return f.bound
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func checkBounds(minLon, minLat, maxLon, maxLat float64) error {
	if !finite(minLon, minLat, maxLon, maxLat) {
		return fmt.Errorf("bounds must be finite, got (%v %v %v %v)", minLon, minLat, maxLon, maxLat)
	}
	// Inverted bounds are rejected rather than swapped: they almost always
	// mean a corrupt source geometry, and a silently self-intersecting ring
	// would poison every downstream catalog query.
	if minLon >= maxLon || minLat >= maxLat {
		return fmt.Errorf("inverted bounds: min (%v %v) must be below max (%v %v)", minLon, minLat, maxLon, maxLat)
	}
	return nil
}

// PointFootprint builds a WKT rectangle centered on (lat, lon) with the
// given half-widths. Deltas must be finite and positive.
func PointFootprint(lat, lon, deltaLat, deltaLon float64) (string, error) {
	if !finite(lat, lon, deltaLat, deltaLon) {
		return "", fmt.Errorf("point footprint arguments must be finite")
	}
	if deltaLat <= 0 || deltaLon <= 0 {
		return "", fmt.Errorf("deltas must be positive, got deltaLat=%v deltaLon=%v", deltaLat, deltaLon)
	}
	ring := orb.Ring{
		{lon - deltaLon, lat - deltaLat},
		{lon + deltaLon, lat - deltaLat},
		{lon + deltaLon, lat + deltaLat},
		{lon - deltaLon, lat + deltaLat},
		{lon - deltaLon, lat - deltaLat},
	}
	return wkt.MarshalString(orb.Polygon{ring}), nil
}

// BoundsFootprint builds a WKT rectangle from explicit bounds.
func BoundsFootprint(minLon, minLat, maxLon, maxLat float64) (string, error) {
	if err := checkBounds(minLon, minLat, maxLon, maxLat); err != nil {
		return "", err
	}
	return boundsWKT(minLon, minLat, maxLon, maxLat), nil
}

func boundsWKT(minLon, minLat, maxLon, maxLat float64) string {
	ring := orb.Ring{
		{maxLon, maxLat},
		{maxLon, minLat},
		{minLon, minLat},
		{minLon, maxLat},
		{maxLon, maxLat},
	}
	return wkt.MarshalString(orb.Polygon{ring})
}

// BBox packages explicit bounds as the (minLon, minLat, maxLon, maxLat)
// tuple the Landsat-style API consumes.
func BBox(minLon, minLat, maxLon, maxLat float64) ([4]float64, error) {
	if err := checkBounds(minLon, minLat, maxLon, maxLat); err != nil {
		return [4]float64{}, err
	}
	return [4]float64{minLon, minLat, maxLon, maxLat}, nil
}

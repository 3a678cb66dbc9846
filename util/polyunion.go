package util

import (
	"github.com/paulmach/orb"

	hull "github.com/furstenheim/go-convex-hull-2d"
)

type coordinates []orb.Point

func (c coordinates) Take(i int) (x, y float64) {
	return c[i][0], c[i][1]
}

func (c coordinates) Len() int {
	return len(c)
}

func (c coordinates) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

func (c coordinates) Slice(i, j int) hull.Interface {
	return c[i:j]
}

func outerRing(g orb.Geometry) coordinates {
	switch p := g.(type) {
	case orb.Polygon:
		if len(p) == 0 {
			return nil
		}
		return coordinates(p[0])
	case orb.MultiPolygon:
		var c coordinates
		for _, poly := range p {
			if len(poly) > 0 {
				c = append(c, poly[0]...)
			}
		}
		return c
	default:
		return nil
	}
}

// CoverageHull returns the convex hull of the outer rings of the given
// geometries as a single closed polygon. Returns a zero-value polygon when
// no usable rings are present.
func CoverageHull(geoms []orb.Geometry) orb.Polygon {
	var c coordinates
	for _, g := range geoms {
		c = append(c, outerRing(g)...)
	}
	if len(c) == 0 {
		return orb.Polygon{}
	}
	h := hull.New(c)

	var ring orb.Ring
	for i := 0; i < h.Len(); i++ {
		x, y := h.Take(i)
		ring = append(ring, orb.Point{x, y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

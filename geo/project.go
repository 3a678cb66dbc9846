package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid parameters.
const (
	semiMajorAxis = 6378137.0
	eccentricity  = 0.0818191908426215
)

// WorldMercator converts between EPSG:3395 (ellipsoidal "World Mercator",
// the projected CRS of the legacy event documents) and geographic WGS84
// coordinates. orb's project package only ships the spherical EPSG:3857
// Mercator, which is off by up to ~20km in latitude at mid latitudes, so
// the ellipsoidal form is implemented here as orb projections.
var WorldMercator = struct {
	ToWGS84   orb.Projection
	FromWGS84 orb.Projection
}{
	ToWGS84: func(p orb.Point) orb.Point {
		lon := p[0] / semiMajorAxis * 180 / math.Pi

		// The inverse latitude has no closed form; iterate the standard
		// fixed point, which converges to float64 precision in a handful
		// of rounds.
		t := math.Exp(-p[1] / semiMajorAxis)
		phi := math.Pi/2 - 2*math.Atan(t)
		for i := 0; i < 15; i++ {
			es := eccentricity * math.Sin(phi)
			phi = math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), eccentricity/2))
		}
		return orb.Point{lon, phi * 180 / math.Pi}
	},
	FromWGS84: func(p orb.Point) orb.Point {
		x := semiMajorAxis * p[0] * math.Pi / 180

		phi := p[1] * math.Pi / 180
		es := eccentricity * math.Sin(phi)
		y := semiMajorAxis * math.Log(math.Tan(math.Pi/4+phi/2)*math.Pow((1-es)/(1+es), eccentricity/2))
		return orb.Point{x, y}
	},
}

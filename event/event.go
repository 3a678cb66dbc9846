// Package event locates fire events in the selected-events shapefile
// produced by the burned-area pipeline and derives the buffered date
// windows used for catalog searches.
package event

import (
	"fmt"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

const dateLayout = "2006-01-02"

// FireEvent is one row of the events shapefile: an identifier, the
// observed ignition and last-active dates, and the burned-area geometry
// in geographic coordinates.
type FireEvent struct {
	ID       string
	Start    time.Time
	End      time.Time
	Geometry orb.Geometry
}

// Window is a date range expanded around an event's native dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Window expands the event's date range by bufferDays on both sides.
func (e *FireEvent) Window(bufferDays int) Window {
	return Window{
		Start: e.Start.AddDate(0, 0, -bufferDays),
		End:   e.End.AddDate(0, 0, bufferDays),
	}
}

// Load reads the events shapefile and returns the event whose id field
// matches the given identifier.
func Load(path, id string) (*FireEvent, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	idx := map[string]int{}
	for i, f := range fields {
		idx[f.String()] = i
	}
	for _, name := range []string{"id", "ig_date", "last_date"} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("events shapefile %s is missing the %q field", path, name)
		}
	}

	for r.Next() {
		n, shape := r.Shape()
		if r.ReadAttribute(n, idx["id"]) != id {
			continue
		}

		start, err := time.Parse(dateLayout, r.ReadAttribute(n, idx["ig_date"]))
		if err != nil {
			return nil, fmt.Errorf("event %s: bad ig_date: %w", id, err)
		}
		end, err := time.Parse(dateLayout, r.ReadAttribute(n, idx["last_date"]))
		if err != nil {
			return nil, fmt.Errorf("event %s: bad last_date: %w", id, err)
		}
		g, err := toGeometry(shape)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", id, err)
		}
		return &FireEvent{ID: id, Start: start, End: end, Geometry: g}, nil
	}

	return nil, fmt.Errorf("fire event %q not found in %s", id, path)
}

// toGeometry converts a shapefile polygon into an orb polygon, one ring
// per part. Ring winding is left as stored; only the bounding box matters
// downstream.
func toGeometry(s shp.Shape) (orb.Geometry, error) {
	p, ok := s.(*shp.Polygon)
	if !ok {
		return nil, fmt.Errorf("unsupported shape type %T", s)
	}

	var poly orb.Polygon
	for i, first := range p.Parts {
		last := len(p.Points)
		if i+1 < len(p.Parts) {
			last = int(p.Parts[i+1])
		}
		var ring orb.Ring
		for _, pt := range p.Points[first:last] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) > 0 && !ring.Closed() {
			ring = append(ring, ring[0])
		}
		poly = append(poly, ring)
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	return poly, nil
}

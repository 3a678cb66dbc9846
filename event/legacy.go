package event

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"

	"fire-scenes/geo"
)

// LoadLegacy reads one of the old per-event JSON documents. Those carry
// the event dates and id in feature properties and the geometry in a
// projected world-Mercator CRS, so the bounding box is computed in that
// CRS and its corners reprojected to geographic coordinates.
//
// Retained for the archived events only; new events come from the
// shapefile via Load.
func LoadLegacy(path string) (*FireEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy event %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse legacy event %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("legacy event %s has no features", path)
	}
	f := fc.Features[0]

	start, err := time.Parse(dateLayout, f.Properties.MustString("first_date_7", ""))
	if err != nil {
		return nil, fmt.Errorf("legacy event %s: bad first_date_7: %w", path, err)
	}
	end, err := time.Parse(dateLayout, f.Properties.MustString("last_date_7", ""))
	if err != nil {
		return nil, fmt.Errorf("legacy event %s: bad last_date_7: %w", path, err)
	}
	id := legacyID(f.Properties["fid"])
	if id == "" {
		return nil, fmt.Errorf("legacy event %s has no fid property", path)
	}
	if f.Geometry == nil {
		return nil, fmt.Errorf("legacy event %s has no geometry", path)
	}

	projected := f.Geometry.Bound()
	b := orb.Bound{
		Min: project.Point(projected.Min, geo.WorldMercator.ToWGS84),
		Max: project.Point(projected.Max, geo.WorldMercator.ToWGS84),
	}
	return &FireEvent{ID: id, Start: start, End: end, Geometry: b.ToPolygon()}, nil
}

// fid arrives as a JSON number in some documents and a string in others.
func legacyID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int:
		return strconv.Itoa(id)
	default:
		return ""
	}
}

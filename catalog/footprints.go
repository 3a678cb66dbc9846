package catalog

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fire-scenes/util"
)

// writeFootprints materializes scene footprints as a GeoJSON feature
// collection, one feature per scene plus a final coverage feature holding
// the convex hull of every footprint.
func writeFootprints(scenes []Scene, props func(Scene) geojson.Properties, path string) error {
	fc := geojson.NewFeatureCollection()
	var geoms []orb.Geometry
	for _, s := range scenes {
		if s.Footprint == nil {
			continue
		}
		f := geojson.NewFeature(s.Footprint)
		f.Properties = props(s)
		fc.Append(f)
		geoms = append(geoms, s.Footprint)
	}

	if hull := util.CoverageHull(geoms); len(hull) > 0 {
		f := geojson.NewFeature(hull)
		f.Properties = geojson.Properties{"coverage": true, "scene_count": len(geoms)}
		fc.Append(f)
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode footprints: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write footprints: %w", err)
	}
	return nil
}

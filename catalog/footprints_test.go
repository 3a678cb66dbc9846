package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fire-scenes/config"
)

func readFeatureCollection(t *testing.T, path string) *geojson.FeatureCollection {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	return fc
}

func footprint(minX, minY, maxX, maxY float64) orb.Geometry {
	return orb.Polygon{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestSentinelExportFootprints(t *testing.T) {
	scenes := []Scene{
		{ID: "uuid-1", DisplayID: "S2A_ONE", Acquired: date(2020, 6, 3), CloudCover: 12.5, Footprint: footprint(0, 0, 1, 1)},
		{ID: "uuid-2", DisplayID: "S2A_TWO", Acquired: date(2020, 6, 8), CloudCover: 3, Footprint: footprint(2, 2, 3, 3)},
	}
	path := filepath.Join(t.TempDir(), "Sentinel_footprints.geojson")

	c := NewSentinel(config.SentinelConfig{})
	require.NoError(t, c.ExportFootprints(scenes, path))

	fc := readFeatureCollection(t, path)
	require.Len(t, fc.Features, 3, "two scenes plus the coverage feature")

	assert.Equal(t, "S2A_ONE", fc.Features[0].Properties.MustString("scene_id", ""))
	assert.Equal(t, "2020-06-03", fc.Features[0].Properties.MustString("acquired", ""))

	coverage := fc.Features[2]
	assert.True(t, coverage.Properties.MustBool("coverage", false))
	b := coverage.Geometry.Bound()
	assert.Equal(t, orb.Point{0, 0}, b.Min)
	assert.Equal(t, orb.Point{3, 3}, b.Max)
}

func TestLandsatExportFlattensTemporalCoverage(t *testing.T) {
	scenes := []Scene{{
		ID:            "LC8-1",
		DisplayID:     "LC08_ONE",
		CoverageStart: date(2020, 6, 4),
		CoverageEnd:   date(2020, 6, 5),
		Ingested:      date(2020, 6, 26),
		DataType:      "OLI_TIRS_L1TP",
		Footprint:     footprint(1, 2, 3, 4),
	}}
	path := filepath.Join(t.TempDir(), "Landsat_footprints.geojson")

	c := NewLandsat(config.LandsatConfig{})
	require.NoError(t, c.ExportFootprints(scenes, path))

	fc := readFeatureCollection(t, path)
	require.Len(t, fc.Features, 2)

	props := fc.Features[0].Properties
	assert.Equal(t, "2020-06-04", props.MustString("temporal_coverage_start", ""))
	assert.Equal(t, "2020-06-05", props.MustString("temporal_coverage_end", ""))
	_, hasComposite := props["temporal_coverage"]
	assert.False(t, hasComposite, "composite column must be flattened away")
}

func TestWriteFootprintsSkipsMissingGeometry(t *testing.T) {
	scenes := []Scene{
		{ID: "a", Footprint: footprint(0, 0, 1, 1)},
		{ID: "b"},
	}
	path := filepath.Join(t.TempDir(), "out.geojson")
	require.NoError(t, writeFootprints(scenes, func(s Scene) geojson.Properties {
		return geojson.Properties{"id": s.ID}
	}, path))

	fc := readFeatureCollection(t, path)
	assert.Len(t, fc.Features, 2, "one scene feature plus coverage")
}

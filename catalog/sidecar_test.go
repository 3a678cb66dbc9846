package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSidecar(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "42.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func readSidecar(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestMergeSidecarPreservesExistingContent(t *testing.T) {
	path := writeSidecar(t, `{
		"type": "FeatureCollection",
		"crs": {"init": "epsg:3395"},
		"features": [{
			"type": "Feature",
			"properties": {"fid": 42, "main_clim": "temperate"},
			"geometry": null
		}]
	}`)

	entries := []map[string]interface{}{
		{"Scene_ID": "S2A_ONE", "acquisition_date": "2020-06-03"},
		{"Scene_ID": "S2A_TWO", "acquisition_date": "2020-06-08"},
	}
	require.NoError(t, mergeSidecar(path, "sentinel_scenes", entries))

	doc := readSidecar(t, path)
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.NotNil(t, doc["crs"], "unrelated top-level keys survive the merge")

	first := doc["features"].([]interface{})[0].(map[string]interface{})
	props := first["properties"].(map[string]interface{})
	assert.Equal(t, "temperate", props["main_clim"])

	scenes := first["sentinel_scenes"].([]interface{})
	require.Len(t, scenes, 2)
	assert.Equal(t, "S2A_ONE", scenes[0].(map[string]interface{})["Scene_ID"])
}

func TestMergeSidecarReplacesPriorEntries(t *testing.T) {
	path := writeSidecar(t, `{
		"features": [{"landsat_scenes": [{"Scene_ID": "stale"}]}]
	}`)

	require.NoError(t, mergeSidecar(path, "landsat_scenes", []map[string]interface{}{
		{"Scene_ID": "fresh"},
	}))

	first := readSidecar(t, path)["features"].([]interface{})[0].(map[string]interface{})
	scenes := first["landsat_scenes"].([]interface{})
	require.Len(t, scenes, 1)
	assert.Equal(t, "fresh", scenes[0].(map[string]interface{})["Scene_ID"])
}

func TestMergeSidecarLeavesNoTempFiles(t *testing.T) {
	path := writeSidecar(t, `{"features": [{}]}`)
	require.NoError(t, mergeSidecar(path, "sentinel_scenes", nil))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestMergeSidecarMissingFeatures(t *testing.T) {
	path := writeSidecar(t, `{"type": "FeatureCollection"}`)
	err := mergeSidecar(path, "sentinel_scenes", nil)
	assert.Error(t, err)
}

func TestMergeSidecarMissingFile(t *testing.T) {
	err := mergeSidecar(filepath.Join(t.TempDir(), "nope.json"), "sentinel_scenes", nil)
	assert.Error(t, err)
}

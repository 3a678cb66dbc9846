package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// mergeSidecar loads the event's legacy JSON document, replaces
// features[0].<key> with the given entries and writes the document back.
// Everything else in the document is preserved, and the write goes
// through a temp file and rename so a crash cannot truncate the sidecar.
func mergeSidecar(path, key string, entries []map[string]interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sidecar %s: %w", path, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	features, ok := doc["features"].([]interface{})
	if !ok || len(features) == 0 {
		return fmt.Errorf("sidecar %s has no features array", path)
	}
	first, ok := features[0].(map[string]interface{})
	if !ok {
		return fmt.Errorf("sidecar %s: features[0] is not an object", path)
	}

	list := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	first[key] = list

	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode sidecar %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("stage sidecar %s: %w", path, err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("stage sidecar %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("stage sidecar %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace sidecar %s: %w", path, err)
	}
	return nil
}

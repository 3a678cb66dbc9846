// Package catalog talks to the imagery provider catalogs: it searches for
// scenes covering a fire event, exports their footprints, downloads the
// scene archives and keeps the legacy per-event metadata sidecars up to
// date.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"fire-scenes/config"
	"fire-scenes/event"
	"fire-scenes/geo"
)

// Scene is the provider-returned metadata for one discovered image. It is
// read-only and owned by a single query/download cycle.
type Scene struct {
	ID           string
	DisplayID    string
	Acquired     time.Time
	Ingested     time.Time
	CloudCover   float64
	URL          string
	QuicklookURL string
	Footprint    orb.Geometry

	// Landsat-only extras.
	DataType      string
	CoverageStart time.Time
	CoverageEnd   time.Time
}

// Query describes one catalog search.
type Query struct {
	Footprint     geo.Footprint
	Window        event.Window
	MaxCloudCover float64
}

// Client is implemented by each imagery provider. Close must be safe to
// call after a failed or empty query; providers with session state log
// out there.
type Client interface {
	// Name labels the provider in output paths and log lines
	// ("Sentinel", "Landsat").
	Name() string
	Authenticate(ctx context.Context) error
	Query(ctx context.Context, q Query) ([]Scene, error)
	ExportFootprints(scenes []Scene, path string) error
	Download(ctx context.Context, scene Scene, dir string) error
	SyncMetadata(scenes []Scene, sidecarPath string) error
	Close(ctx context.Context) error
}

// Fetcher drives one search-and-fetch cycle against a provider.
type Fetcher struct {
	Client  Client
	Config  *config.Config
	Retrier *Retrier
}

// SearchAndFetch performs the full cycle for one event: authenticate,
// query, optionally export footprints, optionally download every scene,
// optionally merge metadata into the event's sidecar. Zero results is a
// normal outcome. The provider session is closed on every path.
func (f *Fetcher) SearchAndFetch(ctx context.Context, ev *event.FireEvent, q Query) error {
	name := f.Client.Name()
	log.Infof("Searching for %s images for event ID %s", name, ev.ID)

	if err := f.Client.Authenticate(ctx); err != nil {
		return fmt.Errorf("%s: authenticate: %w", name, err)
	}
	defer func() {
		if err := f.Client.Close(context.Background()); err != nil {
			log.Warnf("%s: closing session: %v", name, err)
		}
	}()

	scenes, err := f.Client.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("%s: query: %w", name, err)
	}
	if len(scenes) == 0 {
		log.Infof("No %s scenes found for the fire event %s", name, ev.ID)
		return nil
	}
	log.Infof("%d %s products found for event %s", len(scenes), name, ev.ID)
	log.Debugf("scenes: %s", spew.Sdump(scenes))

	outDir := filepath.Join(f.Config.DataDir, "Fire_events", ev.ID, name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("%s: create output directory: %w", name, err)
	}

	if f.Config.SaveFootprints {
		path := filepath.Join(outDir, name+"_footprints.geojson")
		log.Infof("Saving %s product footprints for event %s to %s", name, ev.ID, outDir)
		if err := f.Client.ExportFootprints(scenes, path); err != nil {
			return fmt.Errorf("%s: export footprints: %w", name, err)
		}
	}

	if f.Config.DownloadScenes {
		log.Infof("Downloading %s products for event %s to %s", name, ev.ID, outDir)
		for _, s := range scenes {
			s := s
			// Exhausted retries on an archived scene (ok == false) skip
			// to the next scene rather than aborting the event.
			_, err := f.Retrier.Download(ctx, s.ID, func(ctx context.Context) error {
				return f.Client.Download(ctx, s, outDir)
			})
			if err != nil {
				return fmt.Errorf("%s: download %s: %w", name, s.ID, err)
			}
		}
	}

	if f.Config.UpdateSidecar {
		sidecar := filepath.Join(f.Config.DataDir, "Fire_events", ev.ID, ev.ID+".json")
		if err := f.Client.SyncMetadata(scenes, sidecar); err != nil {
			return fmt.Errorf("%s: sync sidecar: %w", name, err)
		}
	}

	return nil
}

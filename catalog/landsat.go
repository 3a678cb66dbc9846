package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"

	"fire-scenes/config"
	"fire-scenes/util"
)

const landsatPageSize = 100

// LandsatClient talks to a USGS machine-to-machine style catalog: login
// issues a session token, scene-search filters on a bounding rectangle,
// and logout must run on every exit path, including empty results.
type LandsatClient struct {
	Username string
	Password string
	BaseURL  string
	Dataset  string

	HTTP  *http.Client
	token string
}

func NewLandsat(cfg config.LandsatConfig) *LandsatClient {
	return &LandsatClient{
		Username: cfg.Username,
		Password: cfg.Password,
		BaseURL:  cfg.APIURL,
		Dataset:  cfg.Dataset,
		HTTP:     util.HTTPClient(),
	}
}

func (c *LandsatClient) Name() string { return "Landsat" }

type landsatEnvelope struct {
	Data         json.RawMessage `json:"data"`
	ErrorCode    string          `json:"errorCode"`
	ErrorMessage string          `json:"errorMessage"`
}

// post sends one endpoint call and unwraps the standard response
// envelope, surfacing the API-level error fields as Go errors.
func (c *LandsatClient) post(ctx context.Context, endpoint string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%s returned %s: %q", endpoint, res.Status, string(raw))
	}

	var env landsatEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if env.ErrorCode != "" {
		return nil, fmt.Errorf("%s failed: %s (%s)", endpoint, env.ErrorMessage, env.ErrorCode)
	}
	return env.Data, nil
}

func (c *LandsatClient) Authenticate(ctx context.Context) error {
	data, err := c.post(ctx, "login", map[string]string{
		"username": c.Username,
		"password": c.Password,
	})
	if err != nil {
		return err
	}
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("unexpected login payload: %w", err)
	}
	c.token = token
	return nil
}

type landsatCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type landsatSearchRequest struct {
	DatasetName    string             `json:"datasetName"`
	SceneFilter    landsatSceneFilter `json:"sceneFilter"`
	MaxResults     int                `json:"maxResults"`
	StartingNumber int                `json:"startingNumber"`
}

type landsatSceneFilter struct {
	SpatialFilter     landsatSpatialFilter `json:"spatialFilter"`
	AcquisitionFilter landsatDateFilter    `json:"acquisitionFilter"`
	CloudCoverFilter  landsatCloudFilter   `json:"cloudCoverFilter"`
}

type landsatSpatialFilter struct {
	FilterType string            `json:"filterType"`
	LowerLeft  landsatCoordinate `json:"lowerLeft"`
	UpperRight landsatCoordinate `json:"upperRight"`
}

type landsatDateFilter struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type landsatCloudFilter struct {
	Max            float64 `json:"max"`
	IncludeUnknown bool    `json:"includeUnknown"`
}

type landsatSearchResponse struct {
	Results   []landsatResult `json:"results"`
	TotalHits int             `json:"totalHits"`
}

type landsatResult struct {
	EntityID         string            `json:"entityId"`
	DisplayID        string            `json:"displayId"`
	PublishDate      string            `json:"publishDate"`
	CloudCover       float64           `json:"cloudCover"`
	DataType         string            `json:"dataType"`
	SpatialCoverage  *geojson.Geometry `json:"spatialCoverage"`
	TemporalCoverage landsatDateFilter `json:"temporalCoverage"`
}

// Query pages through scene-search using the numeric bounding box the
// M2M-style API expects.
func (c *LandsatClient) Query(ctx context.Context, q Query) ([]Scene, error) {
	bbox := q.Footprint.BBox()
	filter := landsatSceneFilter{
		SpatialFilter: landsatSpatialFilter{
			FilterType: "mbr",
			LowerLeft:  landsatCoordinate{Latitude: bbox[1], Longitude: bbox[0]},
			UpperRight: landsatCoordinate{Latitude: bbox[3], Longitude: bbox[2]},
		},
		AcquisitionFilter: landsatDateFilter{
			Start: q.Window.Start.Format("2006-01-02"),
			End:   q.Window.End.Format("2006-01-02"),
		},
		CloudCoverFilter: landsatCloudFilter{Max: q.MaxCloudCover},
	}

	var scenes []Scene
	for starting := 1; ; starting += landsatPageSize {
		data, err := c.post(ctx, "scene-search", landsatSearchRequest{
			DatasetName:    c.Dataset,
			SceneFilter:    filter,
			MaxResults:     landsatPageSize,
			StartingNumber: starting,
		})
		if err != nil {
			return nil, err
		}
		var page landsatSearchResponse
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode scene-search payload: %w", err)
		}
		for _, r := range page.Results {
			s, err := r.scene()
			if err != nil {
				return nil, fmt.Errorf("scene %s: %w", r.EntityID, err)
			}
			scenes = append(scenes, s)
		}
		if len(page.Results) == 0 || len(scenes) >= page.TotalHits {
			break
		}
	}
	return scenes, nil
}

func (r landsatResult) scene() (Scene, error) {
	s := Scene{
		ID:         r.EntityID,
		DisplayID:  r.DisplayID,
		CloudCover: r.CloudCover,
		DataType:   r.DataType,
	}
	var err error
	if r.TemporalCoverage.Start != "" {
		if s.CoverageStart, err = parseLandsatDate(r.TemporalCoverage.Start); err != nil {
			return s, fmt.Errorf("bad temporal coverage start %q: %w", r.TemporalCoverage.Start, err)
		}
		s.Acquired = s.CoverageStart
	}
	if r.TemporalCoverage.End != "" {
		if s.CoverageEnd, err = parseLandsatDate(r.TemporalCoverage.End); err != nil {
			return s, fmt.Errorf("bad temporal coverage end %q: %w", r.TemporalCoverage.End, err)
		}
	}
	if r.PublishDate != "" {
		if s.Ingested, err = parseLandsatDate(r.PublishDate); err != nil {
			return s, fmt.Errorf("bad publish date %q: %w", r.PublishDate, err)
		}
	}
	if r.SpatialCoverage != nil {
		s.Footprint = r.SpatialCoverage.Geometry()
	}
	return s, nil
}

// The API mixes plain dates and date-times in its date fields.
func parseLandsatDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// Download streams one scene archive. Landsat has no archival staging
// tier, so a failure here is never the triggered condition.
func (c *LandsatClient) Download(ctx context.Context, s Scene, dir string) error {
	u := fmt.Sprintf("%s/download/%s/%s", c.BaseURL, c.Dataset, s.DisplayID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Auth-Token", c.token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("download returned %s: %q", res.Status, string(raw))
	}
	return writeStream(res.Body, filepath.Join(dir, s.DisplayID+".tar.gz"))
}

// ExportFootprints flattens the composite temporal-coverage value into
// scalar start/end columns; GeoJSON attribute consumers cannot represent
// the list-valued form.
func (c *LandsatClient) ExportFootprints(scenes []Scene, path string) error {
	return writeFootprints(scenes, func(s Scene) geojson.Properties {
		return geojson.Properties{
			"entity_id":               s.ID,
			"display_id":              s.DisplayID,
			"temporal_coverage_start": s.CoverageStart.Format("2006-01-02"),
			"temporal_coverage_end":   s.CoverageEnd.Format("2006-01-02"),
			"publish_date":            s.Ingested.Format("2006-01-02"),
			"cloud_cover":             s.CloudCover,
			"data_type":               s.DataType,
		}
	}, path)
}

func (c *LandsatClient) SyncMetadata(scenes []Scene, sidecarPath string) error {
	entries := make([]map[string]interface{}, 0, len(scenes))
	for _, s := range scenes {
		var bounds interface{}
		if s.Footprint != nil {
			b := s.Footprint.Bound()
			bounds = []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
		}
		entries = append(entries, map[string]interface{}{
			"Scene_ID":         s.DisplayID,
			"acquisition_date": s.Acquired.Format("2006-01-02"),
			"ingestion_date":   s.Ingested.Format("2006-01-02"),
			"data_type":        s.DataType,
			"footprint":        bounds,
			"cloud_cover":      s.CloudCover,
		})
	}
	return mergeSidecar(sidecarPath, "landsat_scenes", entries)
}

// Close logs the session out. Runs on every exit path, empty results
// included.
func (c *LandsatClient) Close(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	_, err := c.post(ctx, "logout", map[string]string{})
	if err != nil {
		return err
	}
	log.Debugf("Landsat session closed")
	c.token = ""
	return nil
}

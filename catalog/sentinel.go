package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"

	"fire-scenes/config"
	"fire-scenes/util"
)

const sentinelPageSize = 100

// SentinelClient queries a Copernicus-hub style catalog over its
// OpenSearch endpoint and downloads products through OData. Requests are
// authenticated per call with basic auth; there is no session to tear
// down.
type SentinelClient struct {
	Username    string
	Password    string
	BaseURL     string
	ProductType string
	Platform    string

	HTTP *http.Client
}

func NewSentinel(cfg config.SentinelConfig) *SentinelClient {
	return &SentinelClient{
		Username:    cfg.Username,
		Password:    cfg.Password,
		BaseURL:     cfg.APIURL,
		ProductType: cfg.ProductType,
		Platform:    cfg.Platform,
		HTTP:        util.HTTPClient(),
	}
}

func (c *SentinelClient) Name() string { return "Sentinel" }

// Authenticate probes the search endpoint with a zero-row query so bad
// credentials fail the run before any real work happens.
func (c *SentinelClient) Authenticate(ctx context.Context) error {
	res, err := c.search(ctx, "*", 0, 0)
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("hub rejected the configured credentials")
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned %s to the auth probe", res.Status)
	}
	return nil
}

func (c *SentinelClient) search(ctx context.Context, query string, rows, start int) (*http.Response, error) {
	v := make(url.Values)
	v.Set("format", "json")
	v.Set("rows", strconv.Itoa(rows))
	v.Set("start", strconv.Itoa(start))
	v.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Username, c.Password)
	return c.HTTP.Do(req)
}

// Query pages through the OpenSearch results for the footprint, window,
// cloud-cover ceiling and configured product type.
func (c *SentinelClient) Query(ctx context.Context, q Query) ([]Scene, error) {
	const stamp = "2006-01-02T15:04:05Z"
	query := fmt.Sprintf(
		`footprint:"Intersects(%s)" AND beginposition:[%s TO %s] AND cloudcoverpercentage:[0 TO %g] AND producttype:%s AND platformname:%s`,
		q.Footprint.WKT(),
		q.Window.Start.UTC().Format(stamp),
		q.Window.End.UTC().Format(stamp),
		q.MaxCloudCover,
		c.ProductType,
		c.Platform,
	)
	log.Debugf("Sentinel query %q", query)

	var scenes []Scene
	for start := 0; ; start += sentinelPageSize {
		res, err := c.search(ctx, query, sentinelPageSize, start)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return nil, fmt.Errorf("search returned %s: %q", res.Status, string(body))
		}

		var page sentinelResponse
		err = json.NewDecoder(res.Body).Decode(&page)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}

		for _, e := range page.Feed.Entries {
			s, err := e.scene()
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.ID, err)
			}
			scenes = append(scenes, s)
		}

		total, _ := strconv.Atoi(page.Feed.TotalResults)
		if len(page.Feed.Entries) == 0 || len(scenes) >= total {
			break
		}
	}
	return scenes, nil
}

// Download fetches one product archive through the OData $value endpoint.
// The hub answers 202 for products parked in the long-term archive; that
// same request triggers staging, so the caller retries via the Retrier.
func (c *SentinelClient) Download(ctx context.Context, s Scene, dir string) error {
	u := fmt.Sprintf("%s/odata/v1/Products('%s')/$value", c.BaseURL, s.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Username, c.Password)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusAccepted:
		return fmt.Errorf("product %s: %w", s.ID, ErrArchived)
	case res.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("download returned %s: %q", res.Status, string(body))
	}

	name := s.DisplayID
	if name == "" {
		name = s.ID
	}
	return writeStream(res.Body, filepath.Join(dir, name+".zip"))
}

func (c *SentinelClient) ExportFootprints(scenes []Scene, path string) error {
	return writeFootprints(scenes, func(s Scene) geojson.Properties {
		return geojson.Properties{
			"scene_id":      s.DisplayID,
			"uuid":          s.ID,
			"acquired":      s.Acquired.Format("2006-01-02"),
			"ingested":      s.Ingested.Format("2006-01-02"),
			"cloud_cover":   s.CloudCover,
			"url":           s.URL,
			"quicklook_url": s.QuicklookURL,
		}
	}, path)
}

func (c *SentinelClient) SyncMetadata(scenes []Scene, sidecarPath string) error {
	entries := make([]map[string]interface{}, 0, len(scenes))
	for _, s := range scenes {
		footprint := ""
		if s.Footprint != nil {
			footprint = wkt.MarshalString(s.Footprint)
		}
		entries = append(entries, map[string]interface{}{
			"Scene_ID":         s.DisplayID,
			"acquisition_date": s.Acquired.Format("2006-01-02"),
			"ingestion_date":   s.Ingested.Format("2006-01-02"),
			"URL":              s.URL,
			"Quicklook_URL":    s.QuicklookURL,
			"footprint":        footprint,
		})
	}
	return mergeSidecar(sidecarPath, "sentinel_scenes", entries)
}

// Close is a no-op: the hub authenticates each request independently.
func (c *SentinelClient) Close(ctx context.Context) error { return nil }

// The OpenSearch JSON rendering of a single-entry result is an object
// rather than a one-element array, so entries need a tolerant decoder.
type sentinelEntries []sentinelEntry

func (e *sentinelEntries) UnmarshalJSON(data []byte) error {
	var list []sentinelEntry
	if err := json.Unmarshal(data, &list); err == nil {
		*e = list
		return nil
	}
	var one sentinelEntry
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*e = sentinelEntries{one}
	return nil
}

type sentinelResponse struct {
	Feed struct {
		TotalResults string          `json:"opensearch:totalResults"`
		Entries      sentinelEntries `json:"entry"`
	} `json:"feed"`
}

type sentinelEntry struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Links []sentinelLink  `json:"link"`
	Dates []sentinelValue `json:"date"`
	Strs  []sentinelValue `json:"str"`
	Nums  []sentinelValue `json:"double"`
}

type sentinelLink struct {
	Rel  string `json:"rel"`
	HRef string `json:"href"`
}

type sentinelValue struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func valueByName(vs []sentinelValue, name string) string {
	for _, v := range vs {
		if v.Name == name {
			return v.Content
		}
	}
	return ""
}

func (e sentinelEntry) scene() (Scene, error) {
	s := Scene{
		ID:        e.ID,
		DisplayID: e.Title,
	}
	for _, l := range e.Links {
		switch l.Rel {
		case "":
			s.URL = l.HRef
		case "icon":
			s.QuicklookURL = l.HRef
		}
	}

	var err error
	if v := valueByName(e.Dates, "beginposition"); v != "" {
		if s.Acquired, err = time.Parse(time.RFC3339, v); err != nil {
			return s, fmt.Errorf("bad beginposition %q: %w", v, err)
		}
	}
	if v := valueByName(e.Dates, "ingestiondate"); v != "" {
		if s.Ingested, err = time.Parse(time.RFC3339, v); err != nil {
			return s, fmt.Errorf("bad ingestiondate %q: %w", v, err)
		}
	}
	if v := valueByName(e.Nums, "cloudcoverpercentage"); v != "" {
		if s.CloudCover, err = strconv.ParseFloat(v, 64); err != nil {
			return s, fmt.Errorf("bad cloudcoverpercentage %q: %w", v, err)
		}
	}
	if v := valueByName(e.Strs, "footprint"); v != "" {
		if s.Footprint, err = wkt.Unmarshal(v); err != nil {
			return s, fmt.Errorf("bad footprint %q: %w", v, err)
		}
	}
	return s, nil
}

func writeStream(r io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

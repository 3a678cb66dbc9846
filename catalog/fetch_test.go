package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fire-scenes/config"
	"fire-scenes/event"
	"fire-scenes/geo"
)

// fakeClient records the calls the Fetcher makes.
type fakeClient struct {
	scenes   []Scene
	queryErr error
	dlErr    error

	authed     bool
	closed     bool
	queried    bool
	exported   []string
	downloaded []string
	synced     []string
}

func (f *fakeClient) Name() string { return "Sentinel" }

func (f *fakeClient) Authenticate(ctx context.Context) error { f.authed = true; return nil }

func (f *fakeClient) Close(ctx context.Context) error { f.closed = true; return nil }

func (f *fakeClient) Query(ctx context.Context, q Query) ([]Scene, error) {
	f.queried = true
	return f.scenes, f.queryErr
}

func (f *fakeClient) ExportFootprints(scenes []Scene, path string) error {
	f.exported = append(f.exported, path)
	return nil
}

func (f *fakeClient) Download(ctx context.Context, s Scene, dir string) error {
	f.downloaded = append(f.downloaded, s.ID)
	return f.dlErr
}

func (f *fakeClient) SyncMetadata(scenes []Scene, sidecarPath string) error {
	f.synced = append(f.synced, sidecarPath)
	return nil
}

func testEvent() *event.FireEvent {
	return &event.FireEvent{
		ID:       "42",
		Start:    time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC),
		Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
	}
}

func testQuery(ev *event.FireEvent) Query {
	return Query{
		Footprint:     geo.FromGeometry(ev.Geometry),
		Window:        ev.Window(10),
		MaxCloudCover: 30,
	}
}

func testFetcher(t *testing.T, c Client, dataDir string) *Fetcher {
	t.Helper()
	return &Fetcher{
		Client: c,
		Config: &config.Config{
			DataDir:        dataDir,
			SaveFootprints: true,
			DownloadScenes: true,
			UpdateSidecar:  false,
		},
		Retrier: testRetrier(3, new(int)),
	}
}

func TestSearchAndFetchNoScenes(t *testing.T) {
	dataDir := t.TempDir()
	ev := testEvent()
	c := &fakeClient{}

	err := testFetcher(t, c, dataDir).SearchAndFetch(context.Background(), ev, testQuery(ev))
	require.NoError(t, err, "zero results is a normal completion")

	assert.True(t, c.authed)
	assert.True(t, c.queried)
	assert.True(t, c.closed, "session must be released on the empty-result path")
	assert.Empty(t, c.exported)
	assert.Empty(t, c.downloaded)

	_, statErr := os.Stat(filepath.Join(dataDir, "Fire_events"))
	assert.True(t, os.IsNotExist(statErr), "no output directories for an empty result")
}

func TestSearchAndFetchFullCycle(t *testing.T) {
	dataDir := t.TempDir()
	ev := testEvent()
	c := &fakeClient{scenes: []Scene{{ID: "a"}, {ID: "b"}}}

	f := testFetcher(t, c, dataDir)
	f.Config.UpdateSidecar = true
	err := f.SearchAndFetch(context.Background(), ev, testQuery(ev))
	require.NoError(t, err)

	outDir := filepath.Join(dataDir, "Fire_events", "42", "Sentinel")
	info, statErr := os.Stat(outDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	assert.Equal(t, []string{filepath.Join(outDir, "Sentinel_footprints.geojson")}, c.exported)
	assert.Equal(t, []string{"a", "b"}, c.downloaded)
	assert.Equal(t, []string{filepath.Join(dataDir, "Fire_events", "42", "42.json")}, c.synced)
	assert.True(t, c.closed)
}

func TestSearchAndFetchQueryErrorStillCloses(t *testing.T) {
	ev := testEvent()
	c := &fakeClient{queryErr: errors.New("gateway timeout")}

	err := testFetcher(t, c, t.TempDir()).SearchAndFetch(context.Background(), ev, testQuery(ev))
	require.Error(t, err)
	assert.True(t, c.closed)
}

func TestSearchAndFetchArchivedScenesDoNotAbort(t *testing.T) {
	ev := testEvent()
	c := &fakeClient{
		scenes: []Scene{{ID: "a"}, {ID: "b"}},
		dlErr:  ErrArchived,
	}

	err := testFetcher(t, c, t.TempDir()).SearchAndFetch(context.Background(), ev, testQuery(ev))
	require.NoError(t, err, "exhausted retries degrade to a logged failure")
	// Retrier makes 3 attempts per scene before giving up.
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, c.downloaded)
	assert.True(t, c.closed)
}

func TestSearchAndFetchHardDownloadErrorAborts(t *testing.T) {
	ev := testEvent()
	c := &fakeClient{
		scenes: []Scene{{ID: "a"}},
		dlErr:  errors.New("disk full"),
	}

	err := testFetcher(t, c, t.TempDir()).SearchAndFetch(context.Background(), ev, testQuery(ev))
	require.Error(t, err)
	assert.True(t, c.closed)
}

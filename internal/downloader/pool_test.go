package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igstat/pkg/logger"
	"igstat/pkg/metadata"
	"igstat/pkg/models"
	"igstat/pkg/ratelimit"
)

// cdnServer serves fake asset bytes and 404s for /missing paths.
func cdnServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		if req.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, "bytes-for-%s", req.URL.Path)
	}))
	t.Cleanup(server.Close)
	return server
}

func mediaPlan(base string) *models.DownloadPlan {
	return &models.DownloadPlan{
		Source:    "media",
		Owner:     "natgeo",
		Shortcode: "AAA11",
		Assets: []models.DownloadAsset{
			{URL: base + "/video", Kind: models.AssetVideo, Filename: "natgeo_AAA11.mp4"},
		},
	}
}

func TestRunDownloadsAssets(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	d, err := New(dir, logger.NewTestLogger())
	require.NoError(t, err)

	result, err := d.Run(context.Background(), mediaPlan(server.URL))
	require.NoError(t, err)

	assert.Equal(t, dir, result.Dir)
	assert.Equal(t, []string{"natgeo_AAA11.mp4"}, result.Files)
	assert.Zero(t, result.Failed)
	assert.False(t, result.CompletedAt.IsZero())

	content, err := os.ReadFile(filepath.Join(dir, "natgeo_AAA11.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "bytes-for-/video", string(content))
}

func TestRunWritesManifest(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	d, err := New(dir, logger.NewTestLogger())
	require.NoError(t, err)

	result, err := d.Run(context.Background(), mediaPlan(server.URL))
	require.NoError(t, err)
	require.NotEmpty(t, result.MetadataPath)

	m, err := metadata.Load(result.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, "media", m.Source)
	assert.Equal(t, "natgeo", m.Owner)
	assert.Equal(t, "AAA11", m.Shortcode)
	require.Len(t, m.Assets, 1)
	assert.Equal(t, "natgeo_AAA11.mp4", m.Assets[0].Filename)
	assert.Positive(t, m.Assets[0].Size)
}

func TestRunSkipsExistingFiles(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "natgeo_AAA11.mp4"), []byte("old"), 0644))

	d, err := New(dir, logger.NewTestLogger())
	require.NoError(t, err)

	result, err := d.Run(context.Background(), mediaPlan(server.URL))
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&hits), "existing file must not be re-fetched")
	assert.Equal(t, []string{"natgeo_AAA11.mp4"}, result.Files)

	content, _ := os.ReadFile(filepath.Join(dir, "natgeo_AAA11.mp4"))
	assert.Equal(t, "old", string(content))
}

func TestRunRecordsPartialFailures(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	d, err := New(dir, logger.NewTestLogger())
	require.NoError(t, err)

	plan := &models.DownloadPlan{
		Source: "stories",
		Owner:  "natgeo",
		Assets: []models.DownloadAsset{
			{URL: server.URL + "/s1", Kind: models.AssetImage, Filename: "natgeo_story_1.jpg"},
			{URL: server.URL + "/missing", Kind: models.AssetImage, Filename: "natgeo_story_2.jpg"},
			{URL: server.URL + "/s3", Kind: models.AssetVideo, Filename: "natgeo_story_3.mp4"},
		},
	}

	result, err := d.Run(context.Background(), plan)
	require.NoError(t, err, "one bad asset must not abort the run")

	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Files, 2)
	assert.NotContains(t, result.Files, "natgeo_story_2.jpg")

	m, err := metadata.Load(result.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Failed())
}

func TestRunEmptyPlan(t *testing.T) {
	d, err := New(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = d.Run(context.Background(), &models.DownloadPlan{Source: "media"})
	assert.Error(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)

	d, err := New(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Run(ctx, mediaPlan(server.URL))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunManyAssetsConcurrently(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	d, err := New(dir, logger.NewTestLogger(), WithWorkers(8))
	require.NoError(t, err)

	plan := &models.DownloadPlan{Source: "highlights", Owner: "natgeo"}
	for i := 0; i < 20; i++ {
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      fmt.Sprintf("%s/h%d", server.URL, i),
			Kind:     models.AssetImage,
			Filename: fmt.Sprintf("natgeo_highlight_%d_cover.jpg", i),
		})
	}

	result, err := d.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, result.Files, 20)
	assert.Zero(t, result.Failed)
	assert.Equal(t, int32(20), atomic.LoadInt32(&hits))
}

func TestRunPacedByLimiter(t *testing.T) {
	var hits int32
	server := cdnServer(t, &hits)
	dir := t.TempDir()

	limiter := ratelimit.NewTokenBucket(2, 50*time.Millisecond)
	d, err := New(dir, logger.NewTestLogger(), WithWorkers(4), WithLimiter(limiter))
	require.NoError(t, err)

	plan := &models.DownloadPlan{Source: "stories", Owner: "natgeo"}
	for i := 0; i < 6; i++ {
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      fmt.Sprintf("%s/s%d", server.URL, i),
			Kind:     models.AssetImage,
			Filename: fmt.Sprintf("natgeo_story_%d.jpg", i),
		})
	}

	start := time.Now()
	result, err := d.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, result.Files, 6)
	assert.Zero(t, result.Failed)
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits))
	// 6 fetches through a 2-token bucket need at least two refills.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

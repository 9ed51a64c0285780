package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igstat/pkg/models"
)

func newPlainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRenderer(&buf, ModePlain), &buf
}

func TestHumanCount(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		950:           "950",
		9999:          "9999",
		10_000:        "10K",
		15_400:        "15.4K",
		2_000_000:     "2M",
		3_700_000:     "3.7M",
		1_200_000_000: "1.2B",
	}
	for in, want := range cases {
		assert.Equal(t, want, humanCount(in), "input %d", in)
	}
}

func TestProfileRendersCounters(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Profile(&models.ProfileStats{
		Username:       "natgeo",
		FullName:       "National Geographic",
		FollowerCount:  283_000_000,
		FollowingCount: 120,
		PostCount:      29_000,
		Verified:       true,
		HasStories:     true,
		StoriesCount:   3,
	})

	out := buf.String()
	assert.Contains(t, out, "@natgeo")
	assert.Contains(t, out, "283M")
	assert.Contains(t, out, "verified")
	assert.Contains(t, out, "3 active stories")
}

func TestReelRendersDerivedMetrics(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Reel(&models.ReelStats{
		Shortcode:      "AAA11",
		URL:            "https://www.instagram.com/reel/AAA11/",
		Owner:          "natgeo",
		Views:          1_000_000,
		Likes:          50_000,
		EngagementRate: 0.052,
		ViralIndex:     7.3,
		ViralStatus:    "viral",
		PublishedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "AAA11")
	assert.Contains(t, out, "5.20%")
	assert.Contains(t, out, "7.30 (viral)")
}

func TestReelsTableNumbersRows(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Reels([]models.ReelStats{
		{Shortcode: "AAA11", Views: 100},
		{Shortcode: "BBB22", Views: 200},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "AAA11")
	assert.True(t, strings.HasPrefix(lines[2], "2"))
}

func TestReelsEmpty(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Reels(nil)
	assert.Contains(t, buf.String(), "no reels")
}

func TestSampleShowsBudgetAndTruncation(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Sample(&models.SampleResult{
		Profile:       &models.ProfileStats{Username: "natgeo"},
		SampledCount:  20,
		EnrichedCount: 12,
		PagesUsed:     1,
		Truncated:     true,
		Note:          "enrichment stopped after 12 of 20 profiles: rate limited",
		Ranked: []models.FollowerSummary{
			{Username: "big_fan", FollowerCount: 9000, Enriched: true, Verified: true},
			{Username: "quiet_one"},
		},
		Budget: models.BudgetSnapshot{PageRequests: 1, ProfileLookups: 12, CacheHits: 0, EstimatedTotal: 14},
	})

	out := buf.String()
	assert.Contains(t, out, "@big_fan")
	assert.Contains(t, out, "9K")
	// unenriched rows show a dash instead of a fake zero
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "1 page requests, 12 profile lookups")
}

func TestLikersShowRankAndNote(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Likers([]models.Liker{
		{Rank: 1, Username: "big_fan", FollowerCount: 50_000, LikedCount: 2},
		{Rank: 2, Username: "casual", FollowerCount: 300, LikedCount: 1},
	}, "upstream returned 2 of 5000 likers")

	out := buf.String()
	assert.Contains(t, out, "@big_fan")
	assert.Contains(t, out, "upstream returned 2 of 5000 likers")
}

func TestSearchResultsNumberedForSelection(t *testing.T) {
	r, buf := newPlainRenderer()
	r.SearchResults([]models.SearchResult{
		{Kind: models.TargetProfile, Username: "natgeo", FollowerCount: 283_000_000, Verified: true},
		{Kind: models.TargetMedia, Shortcode: "AAA11"},
	})

	out := buf.String()
	assert.Contains(t, out, "1  ")
	assert.Contains(t, out, "@natgeo")
	assert.Contains(t, out, "AAA11")
	assert.Contains(t, out, "use an index")
}

func TestDownloadReportsFailures(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Download(&models.DownloadResult{
		Dir:    "/tmp/out",
		Files:  []string{"natgeo_AAA11.mp4"},
		Failed: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "1 file(s)")
	assert.Contains(t, out, "1 asset(s) failed")
}

func TestPlainModeHasNoEscapeCodes(t *testing.T) {
	r, buf := newPlainRenderer()
	r.Success("done")
	r.Warn("careful")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestSpinnerSilentInPlainMode(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, ModePlain)
	s.Start("fetching")
	time.Sleep(120 * time.Millisecond)
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, ModeRich)
	s.Start("fetching")
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	s.Stop()
	assert.Contains(t, buf.String(), "fetching")
}

package session

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igstat/pkg/models"
)

func profile(username string, followers int64) *models.ProfileStats {
	return &models.ProfileStats{
		Username:      username,
		UserID:        "id-" + username,
		FollowerCount: followers,
	}
}

func reel(id string) *models.ReelStats {
	return &models.ReelStats{ID: id, Shortcode: "sc-" + id, Owner: "owner"}
}

func TestSetMediaPushesRecentReels(t *testing.T) {
	ctx := New()

	ctx.SetMedia(reel("a"))
	ctx.SetMedia(reel("b"))

	require.NotNil(t, ctx.CurrentMedia())
	assert.Equal(t, "b", ctx.CurrentMedia().ID)

	recent := ctx.RecentReels()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "a", recent[1].ID)
}

func TestPushRecentReelDedupMovesToFront(t *testing.T) {
	ctx := New()
	ctx.PushRecentReel(*reel("a"))
	ctx.PushRecentReel(*reel("b"))
	ctx.PushRecentReel(*reel("a"))

	recent := ctx.RecentReels()
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)
}

func TestRecentReelsBounded(t *testing.T) {
	ctx := New()
	for i := 0; i < RecentReelsCapacity+5; i++ {
		ctx.PushRecentReel(*reel(fmt.Sprintf("r%02d", i)))
	}

	recent := ctx.RecentReels()
	assert.Len(t, recent, RecentReelsCapacity)
	// newest first, oldest dropped
	assert.Equal(t, fmt.Sprintf("r%02d", RecentReelsCapacity+4), recent[0].ID)
}

func TestSetProfileInvalidatesOnSwitch(t *testing.T) {
	ctx := New()
	ctx.SetProfile(profile("alice", 100))
	ctx.SetMedia(reel("a"))
	require.NotNil(t, ctx.CurrentMedia())

	// re-setting the same profile keeps media state
	ctx.SetProfile(profile("Alice", 101))
	assert.NotNil(t, ctx.CurrentMedia())

	// switching profiles clears media-scoped state
	ctx.SetProfile(profile("bob", 50))
	assert.Nil(t, ctx.CurrentMedia())
	assert.Empty(t, ctx.RecentReels())
}

func TestProfileCache(t *testing.T) {
	ctx := New()
	ctx.SetProfile(profile("Alice", 100))

	cached, ok := ctx.CachedProfile("@alice")
	require.True(t, ok)
	assert.Equal(t, int64(100), cached.FollowerCount)

	byID, ok := ctx.CachedProfileByID("id-Alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", byID.Username)

	_, ok = ctx.CachedProfile("nobody")
	assert.False(t, ok)
}

func TestBudgetCounters(t *testing.T) {
	ctx := New()
	ctx.RecordBudget(1, 0, 0)
	ctx.RecordBudget(0, 5, 2)
	ctx.RecordBudget(1, 3, 0)

	snap := ctx.SnapshotBudget()
	assert.Equal(t, 2, snap.PageRequests)
	assert.Equal(t, 8, snap.ProfileLookups)
	assert.Equal(t, 2, snap.CacheHits)
	assert.Equal(t, 10, snap.EstimatedTotal)
}

func TestReset(t *testing.T) {
	ctx := New()
	ctx.SetProfile(profile("alice", 100))
	ctx.SetMedia(reel("a"))
	ctx.RecordBudget(3, 4, 5)
	ctx.AppendHistory("user", "hello")
	ctx.SetCollection(&models.Collection{Name: "c", Kind: models.CollectionReels})

	ctx.Reset()

	assert.Nil(t, ctx.CurrentProfile())
	assert.Nil(t, ctx.CurrentMedia())
	assert.Nil(t, ctx.LastCollection())
	assert.Empty(t, ctx.History(0))
	assert.Equal(t, models.BudgetSnapshot{}, ctx.SnapshotBudget())

	// still usable after reset
	ctx.SetProfile(profile("bob", 1))
	assert.NotNil(t, ctx.CurrentProfile())
}

func TestHistoryBounded(t *testing.T) {
	ctx := New()
	for i := 0; i < HistoryCapacity+10; i++ {
		ctx.AppendHistory("user", fmt.Sprintf("msg %d", i))
	}

	all := ctx.History(0)
	assert.Len(t, all, HistoryCapacity)
	assert.Equal(t, fmt.Sprintf("msg %d", HistoryCapacity+9), all[len(all)-1].Content)

	lastTwo := ctx.History(2)
	require.Len(t, lastTwo, 2)
	assert.Equal(t, fmt.Sprintf("msg %d", HistoryCapacity+8), lastTwo[0].Content)
}

func TestContextJSON(t *testing.T) {
	ctx := New()
	ctx.SetProfile(profile("alice", 100))
	ctx.SetMedia(&models.ReelStats{ID: "1", Shortcode: "Dabc", Views: 1000, ViralIndex: 12.5})
	ctx.SetSearch([]models.SearchResult{{Username: "x"}, {Username: "y"}})
	ctx.SetCollection(&models.Collection{
		Name: "alice reels", Kind: models.CollectionReels,
		Rows: []models.Row{{"a": 1}},
	})

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(ctx.ContextJSON()), &snap))

	profile := snap["current_profile"].(map[string]interface{})
	assert.Equal(t, "alice", profile["username"])

	media := snap["current_media"].(map[string]interface{})
	assert.Equal(t, "Dabc", media["shortcode"])

	assert.Equal(t, float64(2), snap["last_search_count"])

	col := snap["last_collection"].(map[string]interface{})
	assert.Equal(t, "reels", col["kind"])
	assert.Equal(t, float64(1), col["count"])
}

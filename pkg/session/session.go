// Package session holds the conversational state of one interactive
// session: current profile and media, recent reels, the last
// collection, search results, download, and the running API budget.
// A Context is owned by exactly one session and needs no locking.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"igstat/pkg/models"
)

// RecentReelsCapacity bounds the recent-reels list; the oldest entry
// drops on overflow.
const RecentReelsCapacity = 20

// HistoryCapacity bounds the retained chat history.
const HistoryCapacity = 20

// HistoryEntry is one prior conversational turn kept for the agent.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the mutable session state. All updates go through
// methods so the "all or nothing per command" rule has a single
// enforcement point.
type Context struct {
	currentProfile *models.ProfileStats
	currentMedia   *models.ReelStats
	recentReels    []models.ReelStats
	lastSearch     []models.SearchResult
	lastCollection *models.Collection
	lastExportPath string
	lastDownload   *models.DownloadResult

	pageRequests   int
	profileLookups int
	cacheHits      int

	// session-scope profile cache serving sampler cache hits
	profilesByUsername map[string]*models.ProfileStats
	profilesByID       map[string]*models.ProfileStats

	history []HistoryEntry

	startedAt time.Time
}

// New creates an empty session context.
func New() *Context {
	return &Context{
		profilesByUsername: make(map[string]*models.ProfileStats),
		profilesByID:       make(map[string]*models.ProfileStats),
		startedAt:          time.Now().UTC(),
	}
}

// Reset reinitializes the context to empty defaults, keeping the
// process alive. Used on configuration reload.
func (c *Context) Reset() {
	*c = *New()
}

func cacheKey(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// SetProfile makes p the current profile and caches it. Switching to a
// different profile invalidates profile-scoped state from the previous
// one (search results and the last collection stay: they may span
// profiles).
func (c *Context) SetProfile(p *models.ProfileStats) {
	if p == nil {
		return
	}
	if c.currentProfile != nil && cacheKey(c.currentProfile.Username) != cacheKey(p.Username) {
		c.currentMedia = nil
		c.recentReels = nil
	}
	c.currentProfile = p
	c.CacheProfile(p)
}

// SetMedia makes r the current media and pushes it onto recent reels.
func (c *Context) SetMedia(r *models.ReelStats) {
	if r == nil {
		return
	}
	c.currentMedia = r
	c.PushRecentReel(*r)
}

// PushRecentReel prepends a reel, deduplicating by id: an already
// known reel moves to the front instead of duplicating.
func (c *Context) PushRecentReel(r models.ReelStats) {
	filtered := make([]models.ReelStats, 0, len(c.recentReels)+1)
	filtered = append(filtered, r)
	for _, existing := range c.recentReels {
		if existing.ID == r.ID {
			continue
		}
		filtered = append(filtered, existing)
	}
	if len(filtered) > RecentReelsCapacity {
		filtered = filtered[:RecentReelsCapacity]
	}
	c.recentReels = filtered
}

// SetSearch records the last search results.
func (c *Context) SetSearch(results []models.SearchResult) {
	c.lastSearch = results
}

// SetCollection records the last exportable collection.
func (c *Context) SetCollection(col *models.Collection) {
	c.lastCollection = col
}

// SetExportPath records where the last export landed.
func (c *Context) SetExportPath(path string) {
	c.lastExportPath = path
}

// SetDownload records the last download result.
func (c *Context) SetDownload(d *models.DownloadResult) {
	c.lastDownload = d
}

// RecordBudget adds to the monotonic budget counters.
func (c *Context) RecordBudget(pageRequests, profileLookups, cacheHits int) {
	c.pageRequests += pageRequests
	c.profileLookups += profileLookups
	c.cacheHits += cacheHits
}

// SnapshotBudget returns a copy of the counters.
func (c *Context) SnapshotBudget() models.BudgetSnapshot {
	return models.BudgetSnapshot{
		PageRequests:   c.pageRequests,
		ProfileLookups: c.profileLookups,
		CacheHits:      c.cacheHits,
		EstimatedTotal: c.pageRequests + c.profileLookups,
	}
}

// CacheProfile stores a snapshot in the session profile cache.
func (c *Context) CacheProfile(p *models.ProfileStats) {
	if p == nil || p.Username == "" {
		return
	}
	c.profilesByUsername[cacheKey(p.Username)] = p
	if p.UserID != "" {
		c.profilesByID[p.UserID] = p
	}
}

// CachedProfile returns a session-cached snapshot by username.
func (c *Context) CachedProfile(username string) (*models.ProfileStats, bool) {
	p, ok := c.profilesByUsername[cacheKey(username)]
	return p, ok
}

// CachedProfileByID returns a session-cached snapshot by user id.
func (c *Context) CachedProfileByID(userID string) (*models.ProfileStats, bool) {
	p, ok := c.profilesByID[userID]
	return p, ok
}

// CurrentProfile returns the current profile, nil when unset.
func (c *Context) CurrentProfile() *models.ProfileStats { return c.currentProfile }

// CurrentMedia returns the current media, nil when unset.
func (c *Context) CurrentMedia() *models.ReelStats { return c.currentMedia }

// RecentReels returns the bounded recent-reels list, newest first.
func (c *Context) RecentReels() []models.ReelStats { return c.recentReels }

// LastSearch returns the last search results.
func (c *Context) LastSearch() []models.SearchResult { return c.lastSearch }

// LastCollection returns the last collection, nil when none was set.
func (c *Context) LastCollection() *models.Collection { return c.lastCollection }

// LastExportPath returns the last export path, empty when none.
func (c *Context) LastExportPath() string { return c.lastExportPath }

// LastDownload returns the last download result, nil when none.
func (c *Context) LastDownload() *models.DownloadResult { return c.lastDownload }

// AppendHistory records one conversational turn, dropping the oldest
// entries past capacity.
func (c *Context) AppendHistory(role, content string) {
	c.history = append(c.history, HistoryEntry{Role: role, Content: content})
	if len(c.history) > HistoryCapacity {
		c.history = c.history[len(c.history)-HistoryCapacity:]
	}
}

// History returns up to max most recent history entries in order.
func (c *Context) History(max int) []HistoryEntry {
	if max <= 0 || max >= len(c.history) {
		return c.history
	}
	return c.history[len(c.history)-max:]
}

// Snapshot is the compact serializable view injected into the agent's
// working context each turn.
type Snapshot struct {
	CurrentProfile  *profileSummary  `json:"current_profile,omitempty"`
	CurrentMedia    *mediaSummary    `json:"current_media,omitempty"`
	RecentReels     []mediaSummary   `json:"recent_reels,omitempty"`
	LastSearchCount int              `json:"last_search_count,omitempty"`
	LastCollection  *collectionBrief `json:"last_collection,omitempty"`
	LastExportPath  string           `json:"last_export_path,omitempty"`
	Budget          models.BudgetSnapshot `json:"api_budget"`
}

type profileSummary struct {
	Username      string `json:"username"`
	FollowerCount int64  `json:"follower_count"`
	Verified      bool   `json:"verified"`
	Private       bool   `json:"private"`
}

type mediaSummary struct {
	Shortcode  string  `json:"shortcode"`
	Owner      string  `json:"owner,omitempty"`
	Views      int64   `json:"views"`
	ViralIndex float64 `json:"viral_index"`
}

type collectionBrief struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Snapshot builds the compact view.
func (c *Context) Snapshot() Snapshot {
	snap := Snapshot{
		LastSearchCount: len(c.lastSearch),
		LastExportPath:  c.lastExportPath,
		Budget:          c.SnapshotBudget(),
	}
	if c.currentProfile != nil {
		snap.CurrentProfile = &profileSummary{
			Username:      c.currentProfile.Username,
			FollowerCount: c.currentProfile.FollowerCount,
			Verified:      c.currentProfile.Verified,
			Private:       c.currentProfile.Private,
		}
	}
	if c.currentMedia != nil {
		snap.CurrentMedia = &mediaSummary{
			Shortcode:  c.currentMedia.Shortcode,
			Owner:      c.currentMedia.Owner,
			Views:      c.currentMedia.Views,
			ViralIndex: c.currentMedia.ViralIndex,
		}
	}
	for _, reel := range c.recentReels {
		snap.RecentReels = append(snap.RecentReels, mediaSummary{
			Shortcode:  reel.Shortcode,
			Owner:      reel.Owner,
			Views:      reel.Views,
			ViralIndex: reel.ViralIndex,
		})
	}
	if c.lastCollection != nil {
		snap.LastCollection = &collectionBrief{
			Name:  c.lastCollection.Name,
			Kind:  string(c.lastCollection.Kind),
			Count: c.lastCollection.Len(),
		}
	}
	return snap
}

// ContextJSON serializes the snapshot for prompt injection.
func (c *Context) ContextJSON() string {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(data)
}

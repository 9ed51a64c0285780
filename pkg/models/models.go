// Package models defines the data types shared across the analytics
// client: fetched snapshots, collections eligible for export, and the
// results of budget-bounded sampling.
package models

import "time"

// TargetKind discriminates what a command or tool acts on.
type TargetKind string

const (
	TargetProfile    TargetKind = "profile"
	TargetMedia      TargetKind = "media"
	TargetUnresolved TargetKind = "unresolved"
)

// Target is the resolved identification of a command subject. Exactly
// one variant is active; Username is set for profiles, Shortcode for
// media, neither for unresolved.
type Target struct {
	Kind      TargetKind
	Username  string
	Shortcode string
	// Raw preserves the input that produced this target, for logging.
	Raw string
}

// Resolved reports whether the target identifies something actionable.
func (t Target) Resolved() bool {
	return t.Kind == TargetProfile || t.Kind == TargetMedia
}

// ProfileStats is an immutable snapshot of a profile at fetch time.
// Re-fetching produces a new snapshot rather than mutating this one.
type ProfileStats struct {
	Username       string    `json:"username"`
	UserID         string    `json:"user_id"`
	FullName       string    `json:"full_name"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	PostCount      int64     `json:"post_count"`
	Verified       bool      `json:"verified"`
	Private        bool      `json:"private"`
	Biography      string    `json:"biography,omitempty"`
	ExternalURL    string    `json:"external_url,omitempty"`
	ProfilePicURL  string    `json:"profile_pic_url,omitempty"`
	HasStories     bool      `json:"has_stories"`
	StoriesCount   int       `json:"stories_count"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// ReelStats is an immutable snapshot of a single reel or post.
// EngagementRate, ViralIndex and ViralStatus are derived at fetch time
// from the raw counters.
type ReelStats struct {
	ID             string    `json:"id"`
	Shortcode      string    `json:"shortcode"`
	URL            string    `json:"url"`
	Owner          string    `json:"owner"`
	Caption        string    `json:"caption,omitempty"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	Saves          int64     `json:"saves"`
	EngagementRate float64   `json:"engagement_rate"`
	ViralIndex     float64   `json:"viral_index"`
	ViralStatus    string    `json:"viral_status"`
	PublishedAt    time.Time `json:"published_at"`
	FetchedAt      time.Time `json:"fetched_at"`
	// ReshareCount is passed through as-is when the upstream sends it;
	// nil means the upstream omitted it, not zero reshares.
	ReshareCount *int64 `json:"reshare_count,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`
}

// FollowerSummary is one sampled follower. FollowerCount is zero until
// the entry has been enriched with a profile lookup or cache hit.
type FollowerSummary struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name,omitempty"`
	Verified      bool   `json:"verified"`
	Private       bool   `json:"private"`
	FollowerCount int64  `json:"follower_count"`
	Enriched      bool   `json:"enriched"`
}

// Liker is a user who liked one or more of the inspected media,
// accumulated across media before ranking.
type Liker struct {
	UserID          string   `json:"user_id"`
	Username        string   `json:"username"`
	FullName        string   `json:"full_name,omitempty"`
	Verified        bool     `json:"verified"`
	FollowerCount   int64    `json:"follower_count"`
	LikedCount      int      `json:"liked_count"`
	LikedShortcodes []string `json:"liked_shortcodes,omitempty"`
	Rank            int      `json:"rank,omitempty"`
}

// Comment is a single media comment.
type Comment struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	LikeCount int64     `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Story is an active story frame on a profile.
type Story struct {
	ID        string    `json:"id"`
	MediaType string    `json:"media_type"`
	TakenAt   time.Time `json:"taken_at"`
	URL       string    `json:"url,omitempty"`
}

// Highlight is a pinned highlight tray entry.
type Highlight struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	MediaCount int    `json:"media_count"`
	CoverURL   string `json:"cover_url,omitempty"`
}

// SearchResult is one hit from profile/media search.
type SearchResult struct {
	Kind          TargetKind `json:"kind"`
	Username      string     `json:"username,omitempty"`
	Shortcode     string     `json:"shortcode,omitempty"`
	FullName      string     `json:"full_name,omitempty"`
	Verified      bool       `json:"verified"`
	FollowerCount int64      `json:"follower_count,omitempty"`
}

// CollectionKind tags the provenance of a Collection.
type CollectionKind string

const (
	CollectionReels        CollectionKind = "reels"
	CollectionFollowers    CollectionKind = "followers_sample"
	CollectionLikers       CollectionKind = "likers"
	CollectionLikersRanked CollectionKind = "likers_ranked"
	CollectionComments     CollectionKind = "comments"
	CollectionSearch       CollectionKind = "search_results"
	CollectionStories      CollectionKind = "stories"
	CollectionHighlights   CollectionKind = "highlights"
)

// Row is one exportable entry. Rows keep the flat key/value shape the
// exporter needs for union-of-keys CSV headers and lossless JSON.
type Row map[string]interface{}

// Collection is an ordered, kind-tagged batch of fetched entries. Only
// one Collection is "last" at a time in a session.
type Collection struct {
	Name      string         `json:"name"`
	Kind      CollectionKind `json:"kind"`
	FetchedAt time.Time      `json:"fetched_at"`
	Rows      []Row          `json:"rows"`
	Metadata  Row            `json:"metadata,omitempty"`
}

// Len returns the entry count.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rows)
}

// BudgetSnapshot is a point-in-time copy of the session's API budget
// counters. EstimatedTotal includes the initial profile fetch that
// seeded the operation.
type BudgetSnapshot struct {
	PageRequests   int `json:"page_requests"`
	ProfileLookups int `json:"profile_lookups"`
	CacheHits      int `json:"cache_hits"`
	EstimatedTotal int `json:"estimated_total_requests"`
}

// SampleResult is the outcome of one sampler invocation, immutable
// after return.
type SampleResult struct {
	Profile       *ProfileStats     `json:"profile,omitempty"`
	SampledCount  int               `json:"sampled_count"`
	EnrichedCount int               `json:"enriched_count"`
	Ranked        []FollowerSummary `json:"ranked"`
	PagesUsed     int               `json:"pages_used"`
	HasMore       bool              `json:"has_more"`
	Truncated     bool              `json:"truncated"`
	Note          string            `json:"note,omitempty"`
	Budget        BudgetSnapshot    `json:"api_budget"`
}

// DownloadAssetKind classifies a downloadable asset.
type DownloadAssetKind string

const (
	AssetVideo DownloadAssetKind = "video"
	AssetImage DownloadAssetKind = "image"
	AssetAudio DownloadAssetKind = "audio"
)

// DownloadAsset is one CDN URL selected for download.
type DownloadAsset struct {
	URL      string            `json:"url"`
	Kind     DownloadAssetKind `json:"kind"`
	Filename string            `json:"filename"`
}

// DownloadPlan names the assets to fetch for one media, story set or
// highlight tray. Plans decide what to fetch; fetching itself is CDN
// file I/O and never touches the metered data API.
type DownloadPlan struct {
	Source    string          `json:"source"`
	Owner     string          `json:"owner"`
	Shortcode string          `json:"shortcode,omitempty"`
	Assets    []DownloadAsset `json:"assets"`
}

// DownloadResult records what a plan produced on disk.
type DownloadResult struct {
	Dir          string    `json:"dir"`
	Files        []string  `json:"files"`
	Failed       int       `json:"failed"`
	MetadataPath string    `json:"metadata_path"`
	CompletedAt  time.Time `json:"completed_at"`
}

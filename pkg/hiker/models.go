package hiker

import "encoding/json"

// Raw wire payloads. Field sets follow the upstream API; optional
// fields stay pointers or zero values so partial payloads survive
// normalization.

// flexID tolerates the upstream's inconsistent id encoding: the same
// field arrives as a JSON number or a string depending on endpoint.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

type userPayload struct {
	PK             flexID      `json:"pk"`
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	IsPrivate      bool        `json:"is_private"`
	IsVerified     bool        `json:"is_verified"`
	FollowerCount  int64       `json:"follower_count"`
	FollowingCount int64       `json:"following_count"`
	MediaCount     int64       `json:"media_count"`
	Biography      string      `json:"biography"`
	ExternalURL    string      `json:"external_url"`
	ProfilePicURL  string      `json:"profile_pic_url"`
}

type mediaPayload struct {
	PK           flexID       `json:"pk"`
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	User         *userPayload `json:"user"`
	PlayCount    int64        `json:"play_count"`
	LikeCount    int64        `json:"like_count"`
	CommentCount int64        `json:"comment_count"`
	SaveCount    int64        `json:"save_count"`
	TakenAt      int64        `json:"taken_at"`
	CaptionText  string       `json:"caption_text"`
	// ReshareCount is an upstream quirk: present only on main-feed
	// reels, absent on trial reels. Exposed as-is, never interpreted.
	ReshareCount  *int64              `json:"reshare_count,omitempty"`
	VideoURL      string              `json:"video_url"`
	ThumbnailURL  string              `json:"thumbnail_url"`
	ClipsMetadata *clipsMetaPayload   `json:"clips_metadata"`
}

type clipsMetaPayload struct {
	OriginalSoundInfo *struct {
		ProgressiveDownloadURL string `json:"progressive_download_url"`
	} `json:"original_sound_info"`
}

type followersPagePayload struct {
	Users      []userPayload `json:"users"`
	NextPageID string        `json:"next_page_id"`
}

type clipsChunkPayload struct {
	Items      []mediaPayload `json:"items"`
	NextPageID string         `json:"next_page_id"`
}

type likersPayload struct {
	Users []userPayload `json:"users"`
}

type commentPayload struct {
	PK        flexID       `json:"pk"`
	Text      string       `json:"text"`
	LikeCount int64        `json:"like_count"`
	CreatedAt int64        `json:"created_at"`
	User      *userPayload `json:"user"`
}

type commentsPayload struct {
	Comments []commentPayload `json:"comments"`
}

type storyItemPayload struct {
	PK        flexID      `json:"pk"`
	MediaType int         `json:"media_type"`
	TakenAt   int64       `json:"taken_at"`
	VideoURL  string      `json:"video_url"`
	ImageURL  string      `json:"thumbnail_url"`
}

type storiesPayload struct {
	Items []storyItemPayload `json:"items"`
}

type highlightPayload struct {
	PK         flexID      `json:"pk"`
	Title      string      `json:"title"`
	MediaCount int         `json:"media_count"`
	CoverURL   string      `json:"cover_media_url"`
}

type highlightsPayload struct {
	Items []highlightPayload `json:"items"`
}

type topSearchPayload struct {
	Users []userPayload `json:"users"`
}

type errorPayload struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

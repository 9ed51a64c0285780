package hiker

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/models"
	"igstat/pkg/target"
)

// UserByUsername fetches a profile snapshot. Stories fields are left
// zero; callers that need them combine this with Stories.
func (c *Client) UserByUsername(ctx context.Context, username string) (*models.ProfileStats, error) {
	username = target.NormalizeUsername(username)
	if !IsValidUsername(username) {
		return nil, errors.Newf(errors.ErrorTypeUnresolved, "invalid username %q", username)
	}

	var payload userPayload
	params := url.Values{"username": {username}}
	if err := c.getJSON(ctx, endpointUserByUsername, params, &payload); err != nil {
		return nil, err
	}
	return normalizeUser(&payload)
}

// UserByID fetches a profile snapshot by numeric user id.
func (c *Client) UserByID(ctx context.Context, userID string) (*models.ProfileStats, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty user id")
	}

	var payload userPayload
	params := url.Values{"id": {userID}}
	if err := c.getJSON(ctx, endpointUserByID, params, &payload); err != nil {
		return nil, err
	}
	return normalizeUser(&payload)
}

// MediaByCode fetches a reel or post snapshot by shortcode.
func (c *Client) MediaByCode(ctx context.Context, shortcode string) (*models.ReelStats, error) {
	if shortcode == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty shortcode")
	}

	var payload mediaPayload
	params := url.Values{"code": {shortcode}}
	if err := c.getJSON(ctx, endpointMediaByCode, params, &payload); err != nil {
		return nil, err
	}
	return normalizeMedia(&payload)
}

// FollowersPage fetches one bounded page of followers.
func (c *Client) FollowersPage(ctx context.Context, userID, cursor string, limit int) ([]models.FollowerSummary, string, error) {
	if userID == "" {
		return nil, "", errors.New(errors.ErrorTypeUnresolved, "empty user id")
	}

	params := url.Values{
		"user_id": {userID},
		"amount":  {strconv.Itoa(ClampFollowersLimit(limit))},
	}
	if cursor != "" {
		params.Set("end_cursor", cursor)
	}

	var payload followersPagePayload
	if err := c.getJSON(ctx, endpointFollowersChunk, params, &payload); err != nil {
		return nil, "", err
	}

	followers := make([]models.FollowerSummary, 0, len(payload.Users))
	for _, u := range payload.Users {
		if u.Username == "" {
			continue
		}
		followers = append(followers, models.FollowerSummary{
			Username:      u.Username,
			FullName:      u.FullName,
			Verified:      u.IsVerified,
			Private:       u.IsPrivate,
			FollowerCount: u.FollowerCount,
			Enriched:      false,
		})
	}
	return followers, payload.NextPageID, nil
}

// ClipsChunk fetches one page of a profile's reels.
func (c *Client) ClipsChunk(ctx context.Context, userID, cursor string, pageSize int) ([]models.ReelStats, string, error) {
	if userID == "" {
		return nil, "", errors.New(errors.ErrorTypeUnresolved, "empty user id")
	}

	params := url.Values{
		"user_id": {userID},
		"amount":  {strconv.Itoa(ClampClipsPageSize(pageSize))},
	}
	if cursor != "" {
		params.Set("end_cursor", cursor)
	}

	var payload clipsChunkPayload
	if err := c.getJSON(ctx, endpointClipsChunk, params, &payload); err != nil {
		return nil, "", err
	}

	reels := make([]models.ReelStats, 0, len(payload.Items))
	for i := range payload.Items {
		reel, err := normalizeMedia(&payload.Items[i])
		if err != nil {
			// Skip malformed entries, keep the rest of the page.
			c.logger.WithError(err).Debug("skipping malformed clip entry")
			continue
		}
		reels = append(reels, *reel)
	}
	return reels, payload.NextPageID, nil
}

// MediaLikers fetches the bounded liker list for a media. The upstream
// caps this list; callers compare against the media's like count to
// detect truncation.
func (c *Client) MediaLikers(ctx context.Context, mediaID string) ([]models.Liker, error) {
	if mediaID == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty media id")
	}

	var payload likersPayload
	params := url.Values{"id": {mediaID}}
	if err := c.getJSON(ctx, endpointMediaLikers, params, &payload); err != nil {
		return nil, err
	}

	likers := make([]models.Liker, 0, len(payload.Users))
	for _, u := range payload.Users {
		if u.Username == "" {
			continue
		}
		likers = append(likers, models.Liker{
			UserID:        u.PK.String(),
			Username:      u.Username,
			FullName:      u.FullName,
			Verified:      u.IsVerified,
			FollowerCount: u.FollowerCount,
		})
	}
	return likers, nil
}

// MediaComments fetches up to limit comments for a media.
func (c *Client) MediaComments(ctx context.Context, mediaID string, limit int) ([]models.Comment, error) {
	if mediaID == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty media id")
	}
	if limit < 1 {
		limit = 1
	}

	var payload commentsPayload
	params := url.Values{"id": {mediaID}, "amount": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, endpointMediaComments, params, &payload); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(payload.Comments))
	for _, raw := range payload.Comments {
		comment := models.Comment{
			ID:        raw.PK.String(),
			Text:      raw.Text,
			LikeCount: raw.LikeCount,
			CreatedAt: time.Unix(raw.CreatedAt, 0).UTC(),
		}
		if raw.User != nil {
			comment.Username = raw.User.Username
		}
		comments = append(comments, comment)
		if len(comments) >= limit {
			break
		}
	}
	return comments, nil
}

// Stories fetches the active stories for a profile.
func (c *Client) Stories(ctx context.Context, userID string) ([]models.Story, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty user id")
	}

	var payload storiesPayload
	params := url.Values{"user_id": {userID}}
	if err := c.getJSON(ctx, endpointUserStories, params, &payload); err != nil {
		return nil, err
	}

	stories := make([]models.Story, 0, len(payload.Items))
	for _, item := range payload.Items {
		story := models.Story{
			ID:      item.PK.String(),
			TakenAt: time.Unix(item.TakenAt, 0).UTC(),
		}
		switch item.MediaType {
		case 2:
			story.MediaType = "video"
			story.URL = item.VideoURL
		default:
			story.MediaType = "image"
			story.URL = item.ImageURL
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// Highlights fetches the highlight trays for a profile.
func (c *Client) Highlights(ctx context.Context, userID string) ([]models.Highlight, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty user id")
	}

	var payload highlightsPayload
	params := url.Values{"user_id": {userID}}
	if err := c.getJSON(ctx, endpointUserHighlights, params, &payload); err != nil {
		return nil, err
	}

	highlights := make([]models.Highlight, 0, len(payload.Items))
	for _, item := range payload.Items {
		highlights = append(highlights, models.Highlight{
			ID:         item.PK.String(),
			Title:      item.Title,
			MediaCount: item.MediaCount,
			CoverURL:   item.CoverURL,
		})
	}
	return highlights, nil
}

// TopSearch runs a profile search, bounded to limit hits.
func (c *Client) TopSearch(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "empty search query")
	}
	limit = ClampSearchLimit(limit)

	var payload topSearchPayload
	params := url.Values{"query": {query}}
	if err := c.getJSON(ctx, endpointTopSearch, params, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, limit)
	for _, u := range payload.Users {
		if u.Username == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Kind:          models.TargetProfile,
			Username:      u.Username,
			FullName:      u.FullName,
			Verified:      u.IsVerified,
			FollowerCount: u.FollowerCount,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// normalizeUser converts a raw user payload, rejecting entries missing
// the essential identity fields.
func normalizeUser(payload *userPayload) (*models.ProfileStats, error) {
	if payload.Username == "" {
		return nil, errors.New(errors.ErrorTypeMalformedResponse, "user payload missing username")
	}
	return &models.ProfileStats{
		Username:       payload.Username,
		UserID:         payload.PK.String(),
		FullName:       payload.FullName,
		FollowerCount:  payload.FollowerCount,
		FollowingCount: payload.FollowingCount,
		PostCount:      payload.MediaCount,
		Verified:       payload.IsVerified,
		Private:        payload.IsPrivate,
		Biography:      payload.Biography,
		ExternalURL:    payload.ExternalURL,
		ProfilePicURL:  payload.ProfilePicURL,
		FetchedAt:      time.Now().UTC(),
	}, nil
}

// normalizeMedia converts a raw media payload and derives the
// engagement fields.
func normalizeMedia(payload *mediaPayload) (*models.ReelStats, error) {
	if payload.Code == "" {
		return nil, errors.New(errors.ErrorTypeMalformedResponse, "media payload missing code")
	}

	id := payload.ID
	if id == "" {
		id = payload.PK.String()
	}

	reel := &models.ReelStats{
		ID:          id,
		Shortcode:   payload.Code,
		URL:         target.MediaURL(payload.Code),
		Caption:     payload.CaptionText,
		Views:       payload.PlayCount,
		Likes:       payload.LikeCount,
		Comments:    payload.CommentCount,
		Saves:       payload.SaveCount,
		PublishedAt: time.Unix(payload.TakenAt, 0).UTC(),
		FetchedAt:   time.Now().UTC(),
	}
	if payload.User != nil {
		reel.Owner = payload.User.Username
	}
	reel.ReshareCount = payload.ReshareCount
	reel.VideoURL = payload.VideoURL
	reel.ThumbnailURL = payload.ThumbnailURL
	if payload.ClipsMetadata != nil && payload.ClipsMetadata.OriginalSoundInfo != nil {
		reel.AudioURL = payload.ClipsMetadata.OriginalSoundInfo.ProgressiveDownloadURL
	}
	reel.Derive()
	return reel, nil
}

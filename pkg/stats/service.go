// Package stats is the orchestration layer between the session, the
// data API client and the samplers. Every operation applies its
// session updates only after the underlying fetches fully succeed, so
// a failed command never leaves the session half-updated.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/logger"
	"igstat/pkg/models"
	"igstat/pkg/session"
	"igstat/pkg/target"
)

// DataAPI is the slice of the data API client the service consumes.
type DataAPI interface {
	UserByUsername(ctx context.Context, username string) (*models.ProfileStats, error)
	UserByID(ctx context.Context, userID string) (*models.ProfileStats, error)
	MediaByCode(ctx context.Context, shortcode string) (*models.ReelStats, error)
	FollowersPage(ctx context.Context, userID, cursor string, limit int) ([]models.FollowerSummary, string, error)
	ClipsChunk(ctx context.Context, userID, cursor string, pageSize int) ([]models.ReelStats, string, error)
	MediaLikers(ctx context.Context, mediaID string) ([]models.Liker, error)
	MediaComments(ctx context.Context, mediaID string, limit int) ([]models.Comment, error)
	Stories(ctx context.Context, userID string) ([]models.Story, error)
	Highlights(ctx context.Context, userID string) ([]models.Highlight, error)
	TopSearch(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// Service exposes one method per user-facing capability.
type Service struct {
	api  DataAPI
	sess *session.Context
	log  logger.Logger
}

// New builds a service bound to one session.
func New(api DataAPI, sess *session.Context, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{api: api, sess: sess, log: log}
}

// Session returns the bound session context.
func (s *Service) Session() *session.Context { return s.sess }

// ProfileStats fetches a profile snapshot, serving repeat lookups from
// the session cache. Fresh fetches also probe active stories,
// tolerating story failures as degraded data.
func (s *Service) ProfileStats(ctx context.Context, username string) (*models.ProfileStats, error) {
	username = target.NormalizeUsername(username)
	if username == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "no profile to fetch")
	}

	if cached, ok := s.sess.CachedProfile(username); ok {
		s.sess.RecordBudget(0, 0, 1)
		s.sess.SetProfile(cached)
		return cached, nil
	}

	profile, err := s.api.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(0, 1, 0)

	if stories, err := s.api.Stories(ctx, profile.UserID); err == nil {
		s.sess.RecordBudget(1, 0, 0)
		profile.StoriesCount = len(stories)
		profile.HasStories = len(stories) > 0
	} else {
		s.log.WithError(err).WithField("username", username).Debug("stories probe failed")
	}

	s.sess.SetProfile(profile)
	return profile, nil
}

// ReelStats fetches a reel snapshot by shortcode and makes it current.
func (s *Service) ReelStats(ctx context.Context, shortcode string) (*models.ReelStats, error) {
	if shortcode == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "no media to fetch")
	}

	reel, err := s.api.MediaByCode(ctx, shortcode)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)
	s.sess.SetMedia(reel)
	return reel, nil
}

// Reels limits imposed on profile reel listings.
const (
	MaxReelsLimit    = 20
	MaxReelsPages    = 5
	RecentReelsPages = 2
)

// ProfileReels fetches a profile's reels, newest first, bounded by
// limit, page count and an optional days-back cutoff.
func (s *Service) ProfileReels(ctx context.Context, username string, limit, daysBack, maxPages int) ([]models.ReelStats, error) {
	profile, err := s.ProfileStats(ctx, username)
	if err != nil {
		return nil, err
	}

	limit = clamp(limit, 1, MaxReelsLimit)
	maxPages = clamp(maxPages, 1, MaxReelsPages)

	var cutoff time.Time
	if daysBack > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -daysBack)
	}

	seen := make(map[string]bool)
	var reels []models.ReelStats
	cursor := ""
	stop := false

	for page := 0; page < maxPages && !stop; page++ {
		items, next, err := s.api.ClipsChunk(ctx, profile.UserID, cursor, MaxReelsLimit)
		if err != nil {
			return nil, err
		}
		s.sess.RecordBudget(1, 0, 0)

		for _, reel := range items {
			if seen[reel.Shortcode] {
				continue
			}
			if !cutoff.IsZero() && reel.PublishedAt.Before(cutoff) {
				stop = true
				continue
			}
			seen[reel.Shortcode] = true
			reels = append(reels, reel)
		}

		if next == "" || len(reels) >= limit {
			break
		}
		cursor = next
	}

	sort.SliceStable(reels, func(i, j int) bool {
		return reels[i].PublishedAt.After(reels[j].PublishedAt)
	})
	if len(reels) > limit {
		reels = reels[:limit]
	}

	if len(reels) > 0 {
		s.sess.SetMedia(&reels[0])
	}
	s.sess.SetCollection(reelCollection(profile.Username, reels))
	return reels, nil
}

// RecentReels is ProfileReels with a short page budget.
func (s *Service) RecentReels(ctx context.Context, username string, limit int) ([]models.ReelStats, error) {
	return s.ProfileReels(ctx, username, limit, 0, RecentReelsPages)
}

// FollowersPage fetches one bounded page of a profile's followers.
func (s *Service) FollowersPage(ctx context.Context, username string, limit int) ([]models.FollowerSummary, error) {
	profile, err := s.ProfileStats(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, _, err := s.api.FollowersPage(ctx, profile.UserID, "", limit)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)

	col := &models.Collection{
		Name:      fmt.Sprintf("%s followers", profile.Username),
		Kind:      models.CollectionFollowers,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"target_username": profile.Username, "sampled": len(followers)},
	}
	for _, f := range followers {
		col.Rows = append(col.Rows, f.Row())
	}
	s.sess.SetCollection(col)
	return followers, nil
}

// MediaComments fetches up to limit comments for a media shortcode.
func (s *Service) MediaComments(ctx context.Context, shortcode string, limit int) ([]models.Comment, error) {
	reel, err := s.mediaForShortcode(ctx, shortcode)
	if err != nil {
		return nil, err
	}
	limit = clamp(limit, 1, 100)

	comments, err := s.api.MediaComments(ctx, reel.ID, limit)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)

	col := &models.Collection{
		Name:      fmt.Sprintf("%s comments", reel.Shortcode),
		Kind:      models.CollectionComments,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"shortcode": reel.Shortcode, "total_comments": reel.Comments},
	}
	for _, comment := range comments {
		col.Rows = append(col.Rows, comment.Row())
	}
	s.sess.SetCollection(col)
	return comments, nil
}

// MediaLikers fetches the capped liker list for a media shortcode.
// The returned note is non-empty when the upstream cap truncated it.
func (s *Service) MediaLikers(ctx context.Context, shortcode string) ([]models.Liker, string, error) {
	reel, err := s.mediaForShortcode(ctx, shortcode)
	if err != nil {
		return nil, "", err
	}

	likers, err := s.api.MediaLikers(ctx, reel.ID)
	if err != nil {
		return nil, "", err
	}
	s.sess.RecordBudget(1, 0, 0)

	note := ""
	if int64(len(likers)) < reel.Likes {
		note = fmt.Sprintf("upstream returned %d of %d likers", len(likers), reel.Likes)
	}

	col := &models.Collection{
		Name:      fmt.Sprintf("%s likers", reel.Shortcode),
		Kind:      models.CollectionLikers,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"shortcode": reel.Shortcode, "like_count": reel.Likes},
	}
	if note != "" {
		col.Metadata["cap_note"] = note
	}
	for _, liker := range likers {
		col.Rows = append(col.Rows, liker.Row())
	}
	s.sess.SetCollection(col)
	return likers, note, nil
}

// StoriesFor fetches active stories for a profile.
func (s *Service) StoriesFor(ctx context.Context, username string) ([]models.Story, error) {
	profile, err := s.ProfileStats(ctx, username)
	if err != nil {
		return nil, err
	}

	stories, err := s.api.Stories(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)

	col := &models.Collection{
		Name:      fmt.Sprintf("%s stories", profile.Username),
		Kind:      models.CollectionStories,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"target_username": profile.Username},
	}
	for _, story := range stories {
		col.Rows = append(col.Rows, story.Row())
	}
	s.sess.SetCollection(col)
	return stories, nil
}

// HighlightsFor fetches highlight trays for a profile.
func (s *Service) HighlightsFor(ctx context.Context, username string) ([]models.Highlight, error) {
	profile, err := s.ProfileStats(ctx, username)
	if err != nil {
		return nil, err
	}

	highlights, err := s.api.Highlights(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)

	col := &models.Collection{
		Name:      fmt.Sprintf("%s highlights", profile.Username),
		Kind:      models.CollectionHighlights,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"target_username": profile.Username},
	}
	for _, h := range highlights {
		col.Rows = append(col.Rows, h.Row())
	}
	s.sess.SetCollection(col)
	return highlights, nil
}

// Search runs a bounded profile search and records the results for
// selection-by-index follow-ups.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	results, err := s.api.TopSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.sess.RecordBudget(1, 0, 0)
	s.sess.SetSearch(results)

	col := &models.Collection{
		Name:      fmt.Sprintf("search %s", query),
		Kind:      models.CollectionSearch,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"query": query},
	}
	for _, r := range results {
		col.Rows = append(col.Rows, r.Row())
	}
	s.sess.SetCollection(col)
	return results, nil
}

// mediaForShortcode resolves a media snapshot, reusing the current
// media when the shortcode matches.
func (s *Service) mediaForShortcode(ctx context.Context, shortcode string) (*models.ReelStats, error) {
	if shortcode == "" {
		return nil, errors.New(errors.ErrorTypeUnresolved, "no media to fetch")
	}
	if current := s.sess.CurrentMedia(); current != nil && current.Shortcode == shortcode {
		return current, nil
	}
	return s.ReelStats(ctx, shortcode)
}

func reelCollection(username string, reels []models.ReelStats) *models.Collection {
	col := &models.Collection{
		Name:      fmt.Sprintf("%s reels", username),
		Kind:      models.CollectionReels,
		FetchedAt: time.Now().UTC(),
		Metadata:  models.Row{"target_username": username, "count": len(reels)},
	}
	for _, reel := range reels {
		col.Rows = append(col.Rows, reel.Row())
	}
	return col
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package stats

import (
	"context"
	"fmt"
	"strings"

	"igstat/pkg/errors"
	"igstat/pkg/models"
)

// Download planning. Plans resolve metered API metadata into plain CDN
// URLs; executing a plan is file I/O only and never spends API budget.

// PlanMediaDownload selects the primary asset (video, falling back to
// the still image) for a reel.
func (s *Service) PlanMediaDownload(ctx context.Context, shortcode string) (*models.DownloadPlan, error) {
	reel, err := s.mediaForShortcode(ctx, shortcode)
	if err != nil {
		return nil, err
	}

	plan := &models.DownloadPlan{
		Source:    "media",
		Owner:     reel.Owner,
		Shortcode: reel.Shortcode,
	}
	switch {
	case reel.VideoURL != "":
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      reel.VideoURL,
			Kind:     models.AssetVideo,
			Filename: fmt.Sprintf("%s_%s.mp4", reel.Owner, reel.Shortcode),
		})
	case reel.ThumbnailURL != "":
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      reel.ThumbnailURL,
			Kind:     models.AssetImage,
			Filename: fmt.Sprintf("%s_%s.jpg", reel.Owner, reel.Shortcode),
		})
	default:
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no downloadable asset for %s", reel.Shortcode)
	}
	return plan, nil
}

// PlanAudioDownload selects the original audio track of a reel.
func (s *Service) PlanAudioDownload(ctx context.Context, shortcode string) (*models.DownloadPlan, error) {
	reel, err := s.mediaForShortcode(ctx, shortcode)
	if err != nil {
		return nil, err
	}
	if reel.AudioURL == "" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no original audio for %s", reel.Shortcode)
	}

	return &models.DownloadPlan{
		Source:    "audio",
		Owner:     reel.Owner,
		Shortcode: reel.Shortcode,
		Assets: []models.DownloadAsset{{
			URL:      reel.AudioURL,
			Kind:     models.AssetAudio,
			Filename: fmt.Sprintf("%s_%s_audio.mp3", reel.Owner, reel.Shortcode),
		}},
	}, nil
}

// PlanStoriesDownload selects every active story frame for a profile.
func (s *Service) PlanStoriesDownload(ctx context.Context, username string) (*models.DownloadPlan, error) {
	stories, err := s.StoriesFor(ctx, username)
	if err != nil {
		return nil, err
	}
	owner := s.sess.CurrentProfile().Username

	plan := &models.DownloadPlan{Source: "stories", Owner: owner}
	for _, story := range stories {
		if story.URL == "" {
			continue
		}
		kind := models.AssetImage
		ext := "jpg"
		if story.MediaType == "video" {
			kind = models.AssetVideo
			ext = "mp4"
		}
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      story.URL,
			Kind:     kind,
			Filename: fmt.Sprintf("%s_story_%s.%s", owner, story.ID, ext),
		})
	}
	if len(plan.Assets) == 0 {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no active stories for %s", owner)
	}
	return plan, nil
}

// PlanHighlightsDownload selects highlight tray covers for a profile.
func (s *Service) PlanHighlightsDownload(ctx context.Context, username string) (*models.DownloadPlan, error) {
	highlights, err := s.HighlightsFor(ctx, username)
	if err != nil {
		return nil, err
	}
	owner := s.sess.CurrentProfile().Username

	plan := &models.DownloadPlan{Source: "highlights", Owner: owner}
	for _, h := range highlights {
		if h.CoverURL == "" {
			continue
		}
		plan.Assets = append(plan.Assets, models.DownloadAsset{
			URL:      h.CoverURL,
			Kind:     models.AssetImage,
			Filename: fmt.Sprintf("%s_highlight_%s_cover.jpg", owner, h.ID),
		})
	}
	if len(plan.Assets) == 0 {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no highlights for %s", owner)
	}
	return plan, nil
}

// Metric names accepted by LastReelMetric.
var reelMetrics = map[string]func(*models.ReelStats) interface{}{
	"views":           func(r *models.ReelStats) interface{} { return r.Views },
	"likes":           func(r *models.ReelStats) interface{} { return r.Likes },
	"comments":        func(r *models.ReelStats) interface{} { return r.Comments },
	"saves":           func(r *models.ReelStats) interface{} { return r.Saves },
	"engagement_rate": func(r *models.ReelStats) interface{} { return r.EngagementRate },
	"viral_index":     func(r *models.ReelStats) interface{} { return r.ViralIndex },
	"viral_status":    func(r *models.ReelStats) interface{} { return r.ViralStatus },
}

// LastReelMetric fetches a profile's newest reel and extracts one named
// metric from it.
func (s *Service) LastReelMetric(ctx context.Context, username, metric string) (interface{}, *models.ReelStats, error) {
	metric = strings.ToLower(strings.TrimSpace(metric))
	extract, ok := reelMetrics[metric]
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeUnresolved, "unknown metric %q", metric)
	}

	reels, err := s.RecentReels(ctx, username, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(reels) == 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeNotFound, "no reels found for %s", username)
	}
	return extract(&reels[0]), &reels[0], nil
}

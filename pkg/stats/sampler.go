package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/models"
	"igstat/pkg/target"
)

// Sampler bounds. The upstream follower endpoint pages at 50, and the
// estimator never spends more than a handful of pages per run.
const (
	MinSampleSize     = 5
	MaxSampleSize     = 50
	MaxTopN           = 20
	MaxSamplerPages   = 4
	FollowersPageSize = 50
	MaxLikerRankTopN  = 100
)

// EstimateTopFollowers samples a bounded slice of a profile's
// followers, enriches each one sequentially through the profile
// cache, and ranks the sample by follower count. On an upstream
// failure mid-enrichment it returns the partial result with the
// truncation flag set instead of discarding the work already paid for.
func (s *Service) EstimateTopFollowers(ctx context.Context, username string, sampleSize, topN, maxPages int) (*models.SampleResult, error) {
	sampleSize = clamp(sampleSize, MinSampleSize, MaxSampleSize)
	topN = clamp(topN, 1, MaxTopN)
	if topN > sampleSize {
		topN = sampleSize
	}
	maxPages = clamp(maxPages, 1, MaxSamplerPages)

	profile, err := s.ProfileStats(ctx, username)
	if err != nil {
		return nil, err
	}

	var pageRequests, profileLookups, cacheHits, enriched int

	sample, pagesUsed, hasMore, err := s.sampleFollowers(ctx, profile.UserID, sampleSize, maxPages, &pageRequests)
	if err != nil {
		return nil, err
	}

	result := &models.SampleResult{
		Profile:      profile,
		SampledCount: len(sample),
		PagesUsed:    pagesUsed,
		HasMore:      hasMore,
	}

	for i := range sample {
		if err := ctx.Err(); err != nil {
			result.Truncated = true
			result.Note = "cancelled mid-enrichment"
			s.finishSample(result, sample, topN, enriched, pageRequests, profileLookups, cacheHits)
			return result, err
		}

		follower := &sample[i]
		if cached, ok := s.sess.CachedProfile(follower.Username); ok {
			cacheHits++
			applyEnrichment(follower, cached)
			continue
		}

		profileLookups++
		profile, err := s.api.UserByUsername(ctx, follower.Username)
		if err != nil {
			if errors.Is(err, errors.ErrorTypeNotFound) {
				continue
			}
			result.Truncated = true
			result.Note = fmt.Sprintf("enrichment stopped after %d of %d profiles: %v", i, len(sample), err)
			s.finishSample(result, sample, topN, enriched, pageRequests, profileLookups, cacheHits)
			return result, nil
		}
		s.sess.CacheProfile(profile)
		applyEnrichment(follower, profile)
		enriched++
	}

	s.finishSample(result, sample, topN, enriched, pageRequests, profileLookups, cacheHits)
	return result, nil
}

// sampleFollowers pages through the follower feed until the sample is
// full or the page budget runs out, deduplicating by username.
func (s *Service) sampleFollowers(ctx context.Context, userID string, sampleSize, maxPages int, pageRequests *int) ([]models.FollowerSummary, int, bool, error) {
	seen := make(map[string]bool)
	var sample []models.FollowerSummary
	cursor := ""
	pagesUsed := 0
	hasMore := false

	for page := 0; page < maxPages; page++ {
		followers, next, err := s.api.FollowersPage(ctx, userID, cursor, FollowersPageSize)
		if err != nil {
			return nil, pagesUsed, false, err
		}
		*pageRequests++
		pagesUsed++

		for _, f := range followers {
			key := strings.ToLower(f.Username)
			if seen[key] {
				continue
			}
			seen[key] = true
			sample = append(sample, f)
			if len(sample) >= sampleSize {
				break
			}
		}

		hasMore = next != ""
		if len(sample) >= sampleSize || next == "" {
			break
		}
		cursor = next
	}

	return sample, pagesUsed, hasMore, nil
}

// finishSample ranks the sample and stamps counters, collection and
// session state. Ranking is a stable sort on follower count so ties
// keep their original sample order. The enriched count covers actual
// profile lookups only; cache-served entries count as cache hits.
func (s *Service) finishSample(result *models.SampleResult, sample []models.FollowerSummary, topN, enriched, pageRequests, profileLookups, cacheHits int) {
	ranked := make([]models.FollowerSummary, len(sample))
	copy(ranked, sample)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FollowerCount > ranked[j].FollowerCount
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	result.Ranked = ranked
	result.EnrichedCount = enriched
	result.Budget = models.BudgetSnapshot{
		PageRequests:   pageRequests,
		ProfileLookups: profileLookups,
		CacheHits:      cacheHits,
		EstimatedTotal: pageRequests + profileLookups + 1,
	}
	s.sess.RecordBudget(pageRequests, profileLookups, cacheHits)

	col := &models.Collection{
		Name:      fmt.Sprintf("%s top followers", result.Profile.Username),
		Kind:      models.CollectionFollowers,
		FetchedAt: time.Now().UTC(),
		Metadata: models.Row{
			"target_username": result.Profile.Username,
			"sampled":         result.SampledCount,
			"enriched":        result.EnrichedCount,
			"truncated":       result.Truncated,
			"api_budget":      result.Budget,
		},
	}
	for _, f := range ranked {
		col.Rows = append(col.Rows, f.Row())
	}
	s.sess.SetCollection(col)
}

func applyEnrichment(follower *models.FollowerSummary, profile *models.ProfileStats) {
	follower.FollowerCount = profile.FollowerCount
	follower.Verified = profile.Verified
	follower.Private = profile.Private
	if follower.FullName == "" {
		follower.FullName = profile.FullName
	}
	follower.Enriched = true
}

// RankLikersByFollowers aggregates likers across one or more media,
// enriches each unique liker and ranks them by audience size. Likers
// appearing on several media keep a per-shortcode tally.
func (s *Service) RankLikersByFollowers(ctx context.Context, refs []string, topN int) ([]models.Liker, *models.Collection, error) {
	topN = clamp(topN, 1, MaxLikerRankTopN)

	shortcodes := dedupeShortcodes(refs)
	if len(shortcodes) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeUnresolved, "no media to rank likers for")
	}

	byUser := make(map[string]*models.Liker)
	var order []string
	for _, code := range shortcodes {
		reel, err := s.mediaForShortcode(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		likers, err := s.api.MediaLikers(ctx, reel.ID)
		if err != nil {
			return nil, nil, err
		}
		s.sess.RecordBudget(1, 0, 0)

		for _, l := range likers {
			existing, ok := byUser[l.UserID]
			if !ok {
				liker := l
				liker.LikedCount = 0
				byUser[l.UserID] = &liker
				order = append(order, l.UserID)
				existing = byUser[l.UserID]
			}
			existing.LikedCount++
			existing.LikedShortcodes = append(existing.LikedShortcodes, code)
		}
	}

	truncated := false
	for _, id := range order {
		liker := byUser[id]
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if cached, ok := s.sess.CachedProfileByID(liker.UserID); ok {
			s.sess.RecordBudget(0, 0, 1)
			liker.FollowerCount = cached.FollowerCount
			liker.Verified = cached.Verified
			continue
		}
		s.sess.RecordBudget(0, 1, 0)
		profile, err := s.api.UserByID(ctx, liker.UserID)
		if err != nil {
			if errors.Is(err, errors.ErrorTypeNotFound) {
				continue
			}
			truncated = true
			break
		}
		s.sess.CacheProfile(profile)
		liker.FollowerCount = profile.FollowerCount
		liker.Verified = profile.Verified
	}

	ranked := make([]models.Liker, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *byUser[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FollowerCount != b.FollowerCount {
			return a.FollowerCount > b.FollowerCount
		}
		if a.LikedCount != b.LikedCount {
			return a.LikedCount > b.LikedCount
		}
		return false
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	col := &models.Collection{
		Name:      fmt.Sprintf("likers ranked %s", strings.Join(shortcodes, "+")),
		Kind:      models.CollectionLikersRanked,
		FetchedAt: time.Now().UTC(),
		Metadata: models.Row{
			"shortcodes": shortcodes,
			"unique":     len(order),
			"truncated":  truncated,
		},
	}
	for _, liker := range ranked {
		col.Rows = append(col.Rows, liker.Row())
	}
	s.sess.SetCollection(col)
	return ranked, col, nil
}

func dedupeShortcodes(refs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ref := range refs {
		code := ""
		if t := target.ResolveMedia(ref, target.Context{}); t.Kind == models.TargetMedia {
			code = t.Shortcode
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

package models

import "math"

// Viral status labels, ordered from strongest to weakest.
const (
	ViralStatusViral        = "viral"
	ViralStatusHigh         = "high_engagement"
	ViralStatusModerate     = "moderate_engagement"
	ViralStatusLow          = "low_engagement"
	ViralStatusNonViral     = "non_viral"
	ViralStatusInsufficient = "insufficient_data"
)

func round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

// EngagementRate computes (likes+comments+saves)/views rounded to four
// decimals, or 0 when there are no views.
func EngagementRate(views, likes, comments, saves int64) float64 {
	if views <= 0 {
		return 0
	}
	return round(float64(likes+comments+saves)/float64(views), 4)
}

// ViralIndex scores a reel on a 0..100+ scale. Comments and saves are
// weighted above likes since they cost the viewer more.
func ViralIndex(views, likes, comments, saves int64) float64 {
	if views <= 0 {
		return 0
	}
	weighted := float64(likes + 3*comments + 4*saves)
	denom := float64(views)
	if denom < 1 {
		denom = 1
	}
	return round(100*weighted/denom, 2)
}

// ViralStatusFor maps a viral index to its status label. Zero views
// means the score carries no signal.
func ViralStatusFor(views int64, index float64) string {
	if views <= 0 {
		return ViralStatusInsufficient
	}
	switch {
	case index >= 10:
		return ViralStatusViral
	case index >= 6:
		return ViralStatusHigh
	case index >= 3:
		return ViralStatusModerate
	case index >= 1:
		return ViralStatusLow
	default:
		return ViralStatusNonViral
	}
}

// Derive fills the computed fields of a reel snapshot in place.
func (r *ReelStats) Derive() {
	r.EngagementRate = EngagementRate(r.Views, r.Likes, r.Comments, r.Saves)
	r.ViralIndex = ViralIndex(r.Views, r.Likes, r.Comments, r.Saves)
	r.ViralStatus = ViralStatusFor(r.Views, r.ViralIndex)
}

package models

import "time"

// The Row constructors flatten snapshots into exportable entries.
// Timestamps are rendered as RFC 3339 UTC strings so CSV and JSON
// exports carry identical values.

func timeField(t time.Time) interface{} {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Row flattens a reel snapshot.
func (r ReelStats) Row() Row {
	return Row{
		"shortcode":       r.Shortcode,
		"url":             r.URL,
		"owner":           r.Owner,
		"views":           r.Views,
		"likes":           r.Likes,
		"comments":        r.Comments,
		"saves":           r.Saves,
		"engagement_rate": r.EngagementRate,
		"viral_index":     r.ViralIndex,
		"viral_status":    r.ViralStatus,
		"published_at":    timeField(r.PublishedAt),
	}
}

// Row flattens a sampled follower.
func (f FollowerSummary) Row() Row {
	return Row{
		"username":       f.Username,
		"full_name":      f.FullName,
		"verified":       f.Verified,
		"private":        f.Private,
		"follower_count": f.FollowerCount,
		"enriched":       f.Enriched,
	}
}

// Row flattens a ranked liker.
func (l Liker) Row() Row {
	row := Row{
		"rank":           l.Rank,
		"username":       l.Username,
		"full_name":      l.FullName,
		"verified":       l.Verified,
		"follower_count": l.FollowerCount,
		"liked_count":    l.LikedCount,
	}
	if len(l.LikedShortcodes) > 0 {
		row["liked_shortcodes"] = l.LikedShortcodes
	}
	return row
}

// Row flattens a comment.
func (c Comment) Row() Row {
	return Row{
		"id":         c.ID,
		"username":   c.Username,
		"text":       c.Text,
		"like_count": c.LikeCount,
		"created_at": timeField(c.CreatedAt),
	}
}

// Row flattens a story frame.
func (s Story) Row() Row {
	return Row{
		"id":         s.ID,
		"media_type": s.MediaType,
		"taken_at":   timeField(s.TakenAt),
		"url":        s.URL,
	}
}

// Row flattens a highlight entry.
func (h Highlight) Row() Row {
	return Row{
		"id":          h.ID,
		"title":       h.Title,
		"media_count": h.MediaCount,
		"cover_url":   h.CoverURL,
	}
}

// Row flattens a search hit.
func (s SearchResult) Row() Row {
	return Row{
		"kind":           string(s.Kind),
		"username":       s.Username,
		"shortcode":      s.Shortcode,
		"full_name":      s.FullName,
		"verified":       s.Verified,
		"follower_count": s.FollowerCount,
	}
}

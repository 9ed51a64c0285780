package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"igstat/pkg/models"
)

// Renderer writes formatted results to one output stream.
type Renderer struct {
	out  io.Writer
	mode Mode
}

// NewRenderer builds a renderer; a nil writer means stdout.
func NewRenderer(out io.Writer, mode Mode) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if mode != ModePlain {
		mode = ModeRich
	}
	return &Renderer{out: out, mode: mode}
}

// SetMode switches between rich and plain output.
func (r *Renderer) SetMode(mode Mode) {
	if mode == ModePlain || mode == ModeRich {
		r.mode = mode
	}
}

// CurrentMode reports the active mode.
func (r *Renderer) CurrentMode() Mode { return r.mode }

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.mode == ModePlain {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Renderer) line(text string) {
	fmt.Fprintln(r.out, text)
}

// Success prints a confirmation line.
func (r *Renderer) Success(msg string) {
	r.line(r.style(successStyle, msg))
}

// Error prints a failure line.
func (r *Renderer) Error(err error) {
	r.line(r.style(errorStyle, "error: "+err.Error()))
}

// Warn prints a caution line.
func (r *Renderer) Warn(msg string) {
	r.line(r.style(warnStyle, msg))
}

// Info prints a label/value pair.
func (r *Renderer) Info(label, value string) {
	r.printf("%s: %s\n", r.style(labelStyle, label), r.style(valueStyle, value))
}

// Answer prints an agent reply.
func (r *Renderer) Answer(text string) {
	if r.mode == ModePlain {
		r.line(text)
		return
	}
	r.line(panelStyle.Render(text))
}

// Profile renders a profile snapshot.
func (r *Renderer) Profile(p *models.ProfileStats) {
	r.line(r.style(titleStyle, "@"+p.Username))
	if p.FullName != "" {
		r.Info("name", p.FullName)
	}
	r.Info("followers", humanCount(p.FollowerCount))
	r.Info("following", humanCount(p.FollowingCount))
	r.Info("posts", humanCount(p.PostCount))
	badges := profileBadges(p)
	if badges != "" {
		r.Info("flags", badges)
	}
	if p.Biography != "" {
		r.line(r.style(dimStyle, truncate(p.Biography, 160)))
	}
}

func profileBadges(p *models.ProfileStats) string {
	var badges []string
	if p.Verified {
		badges = append(badges, "verified")
	}
	if p.Private {
		badges = append(badges, "private")
	}
	if p.HasStories {
		badges = append(badges, fmt.Sprintf("%d active stories", p.StoriesCount))
	}
	return strings.Join(badges, ", ")
}

// Reel renders one reel snapshot with its derived metrics.
func (r *Renderer) Reel(reel *models.ReelStats) {
	r.line(r.style(titleStyle, reel.Shortcode) + " " + r.style(dimStyle, reel.URL))
	if reel.Owner != "" {
		r.Info("owner", "@"+reel.Owner)
	}
	r.Info("views", humanCount(reel.Views))
	r.Info("likes", humanCount(reel.Likes))
	r.Info("comments", humanCount(reel.Comments))
	r.Info("saves", humanCount(reel.Saves))
	r.Info("engagement", fmt.Sprintf("%.2f%%", reel.EngagementRate*100))
	r.Info("viral index", fmt.Sprintf("%.2f (%s)", reel.ViralIndex, reel.ViralStatus))
	if !reel.PublishedAt.IsZero() {
		r.Info("published", reel.PublishedAt.Format(time.RFC3339))
	}
}

// Reels renders a reel listing, newest first.
func (r *Renderer) Reels(reels []models.ReelStats) {
	if len(reels) == 0 {
		r.Warn("no reels found")
		return
	}
	r.line(r.style(headerRowStyle, fmt.Sprintf("%-3s %-14s %10s %10s %9s %7s %-16s",
		"#", "shortcode", "views", "likes", "comments", "index", "status")))
	for i, reel := range reels {
		r.printf("%-3d %-14s %10s %10s %9s %7.1f %-16s\n",
			i+1, reel.Shortcode,
			humanCount(reel.Views), humanCount(reel.Likes), humanCount(reel.Comments),
			reel.ViralIndex, reel.ViralStatus)
	}
}

// Sample renders a top-followers estimate.
func (r *Renderer) Sample(result *models.SampleResult) {
	r.line(r.style(titleStyle, fmt.Sprintf("top followers for @%s", result.Profile.Username)))
	r.printf("%s\n", r.style(dimStyle, fmt.Sprintf(
		"sampled %d followers over %d page(s), enriched %d",
		result.SampledCount, result.PagesUsed, result.EnrichedCount)))

	r.Followers(result.Ranked)

	if result.Truncated {
		r.Warn("result truncated: " + result.Note)
	}
	if result.HasMore {
		r.line(r.style(dimStyle, "more followers were available beyond the page budget"))
	}
	r.Budget(result.Budget)
}

// Followers renders a follower table.
func (r *Renderer) Followers(followers []models.FollowerSummary) {
	if len(followers) == 0 {
		r.Warn("no followers to show")
		return
	}
	r.line(r.style(headerRowStyle, fmt.Sprintf("%-3s %-24s %12s %-8s", "#", "username", "followers", "flags")))
	for i, f := range followers {
		count := "-"
		if f.Enriched {
			count = humanCount(f.FollowerCount)
		}
		var flags []string
		if f.Verified {
			flags = append(flags, "verified")
		}
		if f.Private {
			flags = append(flags, "private")
		}
		r.printf("%-3d %-24s %12s %-8s\n", i+1, "@"+f.Username, count, strings.Join(flags, ","))
	}
}

// Likers renders a ranked liker table.
func (r *Renderer) Likers(likers []models.Liker, note string) {
	if len(likers) == 0 {
		r.Warn("no likers returned")
		return
	}
	r.line(r.style(headerRowStyle, fmt.Sprintf("%-4s %-24s %12s %6s", "rank", "username", "followers", "liked")))
	for _, l := range likers {
		rank := l.Rank
		if rank == 0 {
			rank = 1
		}
		r.printf("%-4d %-24s %12s %6d\n", rank, "@"+l.Username, humanCount(l.FollowerCount), l.LikedCount)
	}
	if note != "" {
		r.line(r.style(dimStyle, note))
	}
}

// Comments renders a comment listing.
func (r *Renderer) Comments(comments []models.Comment) {
	if len(comments) == 0 {
		r.Warn("no comments returned")
		return
	}
	for _, c := range comments {
		r.printf("%s %s\n", r.style(labelStyle, "@"+c.Username), truncate(c.Text, 120))
	}
}

// Stories renders active story frames.
func (r *Renderer) Stories(stories []models.Story) {
	if len(stories) == 0 {
		r.Warn("no active stories")
		return
	}
	for i, s := range stories {
		r.printf("%-3d %-6s %s\n", i+1, s.MediaType, s.TakenAt.Format(time.RFC3339))
	}
}

// Highlights renders highlight trays.
func (r *Renderer) Highlights(highlights []models.Highlight) {
	if len(highlights) == 0 {
		r.Warn("no highlights")
		return
	}
	for i, h := range highlights {
		r.printf("%-3d %-30s %d items\n", i+1, truncate(h.Title, 30), h.MediaCount)
	}
}

// SearchResults renders search hits with their selection index.
func (r *Renderer) SearchResults(results []models.SearchResult) {
	if len(results) == 0 {
		r.Warn("no results")
		return
	}
	for i, res := range results {
		label := "@" + res.Username
		if res.Kind == models.TargetMedia {
			label = res.Shortcode
		}
		extra := ""
		if res.FollowerCount > 0 {
			extra = humanCount(res.FollowerCount) + " followers"
		}
		if res.Verified {
			extra = strings.TrimSpace(extra + " verified")
		}
		r.printf("%-3d %-26s %s\n", i+1, label, r.style(dimStyle, extra))
	}
	r.line(r.style(dimStyle, "use an index (e.g. \"stats 1\") to select a result"))
}

// Budget renders API budget counters.
func (r *Renderer) Budget(b models.BudgetSnapshot) {
	r.line(r.style(dimStyle, fmt.Sprintf(
		"api budget: %d page requests, %d profile lookups, %d cache hits (~%d total)",
		b.PageRequests, b.ProfileLookups, b.CacheHits, b.EstimatedTotal)))
}

// Export confirms a completed export.
func (r *Renderer) Export(path string, rows int) {
	r.Success(fmt.Sprintf("exported %d rows to %s", rows, path))
}

// Download summarizes a completed download.
func (r *Renderer) Download(result *models.DownloadResult) {
	r.Success(fmt.Sprintf("downloaded %d file(s) to %s", len(result.Files), result.Dir))
	if result.Failed > 0 {
		r.Warn(fmt.Sprintf("%d asset(s) failed", result.Failed))
	}
}

// humanCount shortens large counters the way profile pages do.
func humanCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return trimZero(fmt.Sprintf("%.1fB", float64(n)/1e9))
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1e6))
	case n >= 10_000:
		return trimZero(fmt.Sprintf("%.1fK", float64(n)/1e3))
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

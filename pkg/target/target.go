// Package target resolves raw user input (URLs, @handles, bare
// usernames, positional indexes, contextual pronouns) into a typed
// target reference. Resolution is a pure function of the input plus a
// session snapshot; it never performs network calls.
package target

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"igstat/pkg/models"
)

var (
	mediaPattern    = regexp.MustCompile(`instagram\.com/(?:reel|p|tv)/([A-Za-z0-9_-]+)`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
	shortcodeOnly   = regexp.MustCompile(`^[A-Za-z0-9_-]{5,}$`)
)

// Path segments that can never be usernames when they appear first in
// an instagram.com URL path.
var reservedSegments = map[string]bool{
	"reel": true, "reels": true, "p": true, "tv": true,
	"stories": true, "explore": true, "accounts": true, "developer": true,
}

// Pronouns and placeholders that defer to session context.
var contextualWords = map[string]bool{
	"this": true, "that": true, "these": true, "it": true, "current": true,
}

// Context is the snapshot of session state the resolver consults for
// index selection and pronoun fallback.
type Context struct {
	CurrentProfileUsername string
	CurrentMediaShortcode  string
	LastSearch             []models.SearchResult
}

// Resolve maps input to a typed target. It returns an unresolved
// target, never an error, when no rule matches; callers must branch on
// the Kind rather than assume success.
func Resolve(input string, ctx Context) models.Target {
	raw := input
	input = strings.TrimSpace(input)

	if input == "" || contextualWords[strings.ToLower(input)] {
		return fromContext(raw, ctx)
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(ctx.LastSearch) {
			return fromSearchEntry(raw, ctx.LastSearch[n-1])
		}
		return models.Target{Kind: models.TargetUnresolved, Raw: raw}
	}

	if m := mediaPattern.FindStringSubmatch(input); m != nil {
		return models.Target{Kind: models.TargetMedia, Shortcode: m[1], Raw: raw}
	}

	if username, ok := usernameFromInput(input); ok {
		return models.Target{Kind: models.TargetProfile, Username: username, Raw: raw}
	}

	return models.Target{Kind: models.TargetUnresolved, Raw: raw}
}

// ResolveMedia is Resolve restricted to media: bare shortcodes are
// accepted and profile matches are rejected.
func ResolveMedia(input string, ctx Context) models.Target {
	raw := input
	input = strings.TrimSpace(input)

	if input == "" || contextualWords[strings.ToLower(input)] {
		if ctx.CurrentMediaShortcode != "" {
			return models.Target{Kind: models.TargetMedia, Shortcode: ctx.CurrentMediaShortcode, Raw: raw}
		}
		return models.Target{Kind: models.TargetUnresolved, Raw: raw}
	}

	if m := mediaPattern.FindStringSubmatch(input); m != nil {
		return models.Target{Kind: models.TargetMedia, Shortcode: m[1], Raw: raw}
	}

	if !strings.Contains(input, "instagram.com") && !strings.HasPrefix(input, "@") && shortcodeOnly.MatchString(input) {
		return models.Target{Kind: models.TargetMedia, Shortcode: input, Raw: raw}
	}

	return models.Target{Kind: models.TargetUnresolved, Raw: raw}
}

// NormalizeUsername strips a leading @, trailing slashes and
// whitespace, and lowercases the handle so equivalent spellings
// compare equal.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	return strings.ToLower(username)
}

// MediaURL rebuilds the canonical reel URL for a shortcode.
func MediaURL(shortcode string) string {
	return "https://www.instagram.com/reel/" + shortcode + "/"
}

// ProfileURL rebuilds the canonical profile URL for a username.
func ProfileURL(username string) string {
	return "https://www.instagram.com/" + NormalizeUsername(username) + "/"
}

func fromContext(raw string, ctx Context) models.Target {
	if ctx.CurrentMediaShortcode != "" {
		return models.Target{Kind: models.TargetMedia, Shortcode: ctx.CurrentMediaShortcode, Raw: raw}
	}
	if ctx.CurrentProfileUsername != "" {
		return models.Target{Kind: models.TargetProfile, Username: NormalizeUsername(ctx.CurrentProfileUsername), Raw: raw}
	}
	return models.Target{Kind: models.TargetUnresolved, Raw: raw}
}

func fromSearchEntry(raw string, entry models.SearchResult) models.Target {
	if entry.Kind == models.TargetMedia && entry.Shortcode != "" {
		return models.Target{Kind: models.TargetMedia, Shortcode: entry.Shortcode, Raw: raw}
	}
	if entry.Username != "" {
		return models.Target{Kind: models.TargetProfile, Username: NormalizeUsername(entry.Username), Raw: raw}
	}
	return models.Target{Kind: models.TargetUnresolved, Raw: raw}
}

// usernameFromInput extracts a profile handle from an @handle, a bare
// username, or a profile URL.
func usernameFromInput(input string) (string, bool) {
	if strings.HasPrefix(input, "@") {
		candidate := NormalizeUsername(input)
		if usernamePattern.MatchString(candidate) {
			return candidate, true
		}
		return "", false
	}

	if !strings.Contains(input, "instagram.com") {
		// Bare token: no scheme, no slashes.
		if strings.ContainsAny(input, "/ ") {
			return "", false
		}
		candidate := NormalizeUsername(input)
		if usernamePattern.MatchString(candidate) {
			return candidate, true
		}
		return "", false
	}

	return usernameFromURL(input)
}

func usernameFromURL(input string) (string, bool) {
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	parsed, err := url.Parse(input)
	if err != nil {
		return "", false
	}

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "", false
	}

	first := strings.ToLower(segments[0])
	if first == "stories" && len(segments) > 1 {
		candidate := NormalizeUsername(segments[1])
		if !reservedSegments[candidate] && usernamePattern.MatchString(candidate) {
			return candidate, true
		}
		return "", false
	}
	if reservedSegments[first] {
		return "", false
	}

	candidate := NormalizeUsername(segments[0])
	if usernamePattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}

package hiker

// API endpoint paths, one per capability.
const (
	endpointUserByUsername = "/v1/user/by/username"
	endpointUserByID       = "/v1/user/by/id"
	endpointMediaByCode    = "/v1/media/by/code"
	endpointFollowersChunk = "/gql/user/followers/chunk"
	endpointClipsChunk     = "/v1/user/clips/chunk"
	endpointMediaLikers    = "/v1/media/likers"
	endpointMediaComments  = "/v1/media/comments"
	endpointUserStories    = "/v1/user/stories"
	endpointUserHighlights = "/v1/user/highlights"
	endpointTopSearch      = "/gql/topsearch"
)

// Paging limits imposed by the upstream API.
const (
	MaxFollowersPageSize = 50
	MaxClipsPageSize     = 24
	MaxSearchResults     = 50
)

// ClampFollowersLimit bounds a followers page size to 1..50.
func ClampFollowersLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxFollowersPageSize {
		return MaxFollowersPageSize
	}
	return limit
}

// ClampClipsPageSize bounds a reels page size to 1..24.
func ClampClipsPageSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxClipsPageSize {
		return MaxClipsPageSize
	}
	return size
}

// ClampSearchLimit bounds a search result count to 1..50.
func ClampSearchLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxSearchResults {
		return MaxSearchResults
	}
	return limit
}

// IsValidUsername reports whether s is a plausible Instagram handle:
// letters, digits, dots and underscores, at most 30 characters.
func IsValidUsername(s string) bool {
	if s == "" || len(s) > 30 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_':
		default:
			return false
		}
	}
	return true
}

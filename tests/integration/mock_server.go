package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// MockDataServer simulates the metered data API plus a tiny CDN so the
// whole stack can be exercised over real HTTP. Handlers count requests
// per endpoint and support injected failures for retry tests.
type MockDataServer struct {
	server    *httptest.Server
	accessKey string

	mu            sync.Mutex
	requests      map[string]int
	cdnHits       int32
	failures      map[string]*injectedFailure
	users         map[string]map[string]interface{} // by username
	usersByID     map[string]map[string]interface{}
	media         map[string]map[string]interface{} // by shortcode
	mediaByID     map[string]string                 // media id -> shortcode
	followerPages map[string][]map[string]interface{}
	clipPages     map[string][]map[string]interface{}
	likers        map[string][]map[string]interface{} // by media id
	comments      map[string][]map[string]interface{}
	stories       map[string][]map[string]interface{} // by user id
	highlights    map[string][]map[string]interface{}
	searchUsers   []map[string]interface{}
}

type injectedFailure struct {
	status    int
	remaining int
}

// NewMockDataServer starts a server that accepts the given access key.
func NewMockDataServer(accessKey string) *MockDataServer {
	m := &MockDataServer{
		accessKey:     accessKey,
		requests:      make(map[string]int),
		failures:      make(map[string]*injectedFailure),
		users:         make(map[string]map[string]interface{}),
		usersByID:     make(map[string]map[string]interface{}),
		media:         make(map[string]map[string]interface{}),
		mediaByID:     make(map[string]string),
		followerPages: make(map[string][]map[string]interface{}),
		clipPages:     make(map[string][]map[string]interface{}),
		likers:        make(map[string][]map[string]interface{}),
		comments:      make(map[string][]map[string]interface{}),
		stories:       make(map[string][]map[string]interface{}),
		highlights:    make(map[string][]map[string]interface{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/user/by/username", m.handleUserByUsername)
	mux.HandleFunc("/v1/user/by/id", m.handleUserByID)
	mux.HandleFunc("/v1/media/by/code", m.handleMediaByCode)
	mux.HandleFunc("/gql/user/followers/chunk", m.handleFollowers)
	mux.HandleFunc("/v1/user/clips/chunk", m.handleClips)
	mux.HandleFunc("/v1/media/likers", m.handleLikers)
	mux.HandleFunc("/v1/media/comments", m.handleComments)
	mux.HandleFunc("/v1/user/stories", m.handleStories)
	mux.HandleFunc("/v1/user/highlights", m.handleHighlights)
	mux.HandleFunc("/gql/topsearch", m.handleSearch)
	mux.HandleFunc("/cdn/", m.handleCDN)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *MockDataServer) URL() string { return m.server.URL }

func (m *MockDataServer) Close() { m.server.Close() }

// Requests returns how many calls reached an endpoint path.
func (m *MockDataServer) Requests(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[endpoint]
}

// CDNHits returns how many asset downloads reached the mock CDN.
func (m *MockDataServer) CDNHits() int {
	return int(atomic.LoadInt32(&m.cdnHits))
}

// FailNext makes the next n calls to an endpoint answer with status.
func (m *MockDataServer) FailNext(endpoint string, status, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = &injectedFailure{status: status, remaining: n}
}

// AddUser registers a profile reachable by username and id.
func (m *MockDataServer) AddUser(username, id string, followerCount int64, verified bool) {
	payload := map[string]interface{}{
		"pk":              id,
		"username":        username,
		"full_name":       username + " account",
		"follower_count":  followerCount,
		"following_count": int64(100),
		"media_count":     int64(50),
		"is_verified":     verified,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = payload
	m.usersByID[id] = payload
}

// AddReel registers a media payload reachable by shortcode.
func (m *MockDataServer) AddReel(shortcode, id, owner string, views, likes int64, videoURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[shortcode] = map[string]interface{}{
		"pk":            id,
		"id":            id,
		"code":          shortcode,
		"user":          map[string]interface{}{"pk": "0", "username": owner},
		"play_count":    views,
		"like_count":    likes,
		"comment_count": likes / 10,
		"taken_at":      int64(1700000000),
		"video_url":     videoURL,
	}
	m.mediaByID[id] = shortcode
}

// SetFollowerPages installs the paged follower feed for a user id.
// Every page except the last carries a cursor to the next one.
func (m *MockDataServer) SetFollowerPages(userID string, pages [][]map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followerPages[userID] = buildPages(pages, "users")
}

// SetClipPages installs the paged reels feed for a user id.
func (m *MockDataServer) SetClipPages(userID string, pages [][]map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clipPages[userID] = buildPages(pages, "items")
}

// SetLikers installs the liker list for a media id.
func (m *MockDataServer) SetLikers(mediaID string, users []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likers[mediaID] = users
}

// SetSearchUsers installs the profile search results.
func (m *MockDataServer) SetSearchUsers(users []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchUsers = users
}

// SetStories installs the active stories for a user id.
func (m *MockDataServer) SetStories(userID string, items []map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[userID] = items
}

// UserRef builds a minimal user payload for follower and liker lists.
func UserRef(id, username string, followerCount int64) map[string]interface{} {
	return map[string]interface{}{
		"pk":             id,
		"username":       username,
		"follower_count": followerCount,
	}
}

// buildPages wires cursor chains: page i links to cursor "page_<i+1>".
func buildPages(pages [][]map[string]interface{}, field string) []map[string]interface{} {
	out := make([]map[string]interface{}, len(pages))
	for i, page := range pages {
		payload := map[string]interface{}{field: page}
		if i < len(pages)-1 {
			payload["next_page_id"] = fmt.Sprintf("page_%d", i+1)
		}
		out[i] = payload
	}
	return out
}

// gate counts the request, checks the access key and applies any
// injected failure. It reports whether the handler should continue.
func (m *MockDataServer) gate(w http.ResponseWriter, r *http.Request) bool {
	m.mu.Lock()
	m.requests[r.URL.Path]++
	failure := m.failures[r.URL.Path]
	if failure != nil && failure.remaining > 0 {
		failure.remaining--
		status := failure.status
		m.mu.Unlock()
		writeJSONStatus(w, status, map[string]interface{}{"detail": "injected failure"})
		return false
	}
	m.mu.Unlock()

	if r.URL.Query().Get("access_key") != m.accessKey {
		writeJSONStatus(w, http.StatusUnauthorized, map[string]interface{}{"detail": "invalid access key"})
		return false
	}
	return true
}

func (m *MockDataServer) handleUserByUsername(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	payload, ok := m.users[r.URL.Query().Get("username")]
	m.mu.Unlock()
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, map[string]interface{}{"detail": "user not found"})
		return
	}
	writeJSON(w, payload)
}

func (m *MockDataServer) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	payload, ok := m.usersByID[r.URL.Query().Get("id")]
	m.mu.Unlock()
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, map[string]interface{}{"detail": "user not found"})
		return
	}
	writeJSON(w, payload)
}

func (m *MockDataServer) handleMediaByCode(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	payload, ok := m.media[r.URL.Query().Get("code")]
	m.mu.Unlock()
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, map[string]interface{}{"detail": "media not found"})
		return
	}
	writeJSON(w, payload)
}

func (m *MockDataServer) handleFollowers(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.servePage(w, r, m.followerPages[r.URL.Query().Get("user_id")], "users")
}

func (m *MockDataServer) handleClips(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.servePage(w, r, m.clipPages[r.URL.Query().Get("user_id")], "items")
}

// servePage resolves the end_cursor against the cursor chain built by
// buildPages. An empty cursor serves the first page.
func (m *MockDataServer) servePage(w http.ResponseWriter, r *http.Request, pages []map[string]interface{}, field string) {
	if len(pages) == 0 {
		writeJSON(w, map[string]interface{}{field: []interface{}{}})
		return
	}
	index := 0
	if cursor := r.URL.Query().Get("end_cursor"); cursor != "" {
		if _, err := fmt.Sscanf(cursor, "page_%d", &index); err != nil || index >= len(pages) {
			writeJSON(w, map[string]interface{}{field: []interface{}{}})
			return
		}
	}
	writeJSON(w, pages[index])
}

func (m *MockDataServer) handleLikers(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	users := m.likers[r.URL.Query().Get("id")]
	m.mu.Unlock()
	writeJSON(w, map[string]interface{}{"users": users})
}

func (m *MockDataServer) handleComments(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	comments := m.comments[r.URL.Query().Get("id")]
	m.mu.Unlock()
	writeJSON(w, map[string]interface{}{"comments": comments})
}

func (m *MockDataServer) handleStories(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	items := m.stories[r.URL.Query().Get("user_id")]
	m.mu.Unlock()
	writeJSON(w, map[string]interface{}{"items": items})
}

func (m *MockDataServer) handleHighlights(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	items := m.highlights[r.URL.Query().Get("user_id")]
	m.mu.Unlock()
	writeJSON(w, map[string]interface{}{"items": items})
}

func (m *MockDataServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r) {
		return
	}
	m.mu.Lock()
	users := m.searchUsers
	m.mu.Unlock()
	writeJSON(w, map[string]interface{}{"users": users})
}

// handleCDN serves deterministic asset bytes without the access key
// gate. Real CDN URLs are pre-signed and unmetered.
func (m *MockDataServer) handleCDN(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.cdnHits, 1)
	fmt.Fprintf(w, "asset-bytes-%s", r.URL.Path)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

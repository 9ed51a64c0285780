package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igstat/pkg/agent"
	"igstat/pkg/config"
	"igstat/pkg/errors"
	"igstat/pkg/export"
	"igstat/pkg/logger"
	"igstat/pkg/models"
	"igstat/pkg/session"
	"igstat/pkg/stats"
	"igstat/pkg/ui"
)

type fakeAPI struct {
	users       map[string]*models.ProfileStats
	media       map[string]*models.ReelStats
	clips       map[string][]models.ReelStats
	followers   map[string][]models.FollowerSummary
	search      []models.SearchResult
	userLookups int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:     make(map[string]*models.ProfileStats),
		media:     make(map[string]*models.ReelStats),
		clips:     make(map[string][]models.ReelStats),
		followers: make(map[string][]models.FollowerSummary),
	}
}

func (f *fakeAPI) addUser(username, id string, followers int64) {
	f.users[username] = &models.ProfileStats{
		Username: username, UserID: id, FollowerCount: followers,
		FetchedAt: time.Now().UTC(),
	}
}

func (f *fakeAPI) addReel(shortcode, owner string, views int64) {
	reel := &models.ReelStats{
		ID: "m_" + shortcode, Shortcode: shortcode, Owner: owner,
		Views: views, Likes: views / 20,
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		VideoURL:    "https://cdn.example/" + shortcode + ".mp4",
	}
	reel.Derive()
	f.media[shortcode] = reel
	if user, ok := f.users[owner]; ok {
		f.clips[user.UserID] = append(f.clips[user.UserID], *reel)
	}
}

func (f *fakeAPI) UserByUsername(ctx context.Context, username string) (*models.ProfileStats, error) {
	f.userLookups++
	if u, ok := f.users[username]; ok {
		out := *u
		return &out, nil
	}
	return nil, errors.Newf(errors.ErrorTypeNotFound, "user %s not found", username)
}

func (f *fakeAPI) UserByID(ctx context.Context, userID string) (*models.ProfileStats, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			out := *u
			return &out, nil
		}
	}
	return nil, errors.New(errors.ErrorTypeNotFound, "user not found")
}

func (f *fakeAPI) MediaByCode(ctx context.Context, shortcode string) (*models.ReelStats, error) {
	if m, ok := f.media[shortcode]; ok {
		out := *m
		return &out, nil
	}
	return nil, errors.New(errors.ErrorTypeNotFound, "media not found")
}

func (f *fakeAPI) FollowersPage(ctx context.Context, userID, cursor string, limit int) ([]models.FollowerSummary, string, error) {
	return f.followers[userID], "", nil
}

func (f *fakeAPI) ClipsChunk(ctx context.Context, userID, cursor string, pageSize int) ([]models.ReelStats, string, error) {
	return f.clips[userID], "", nil
}

func (f *fakeAPI) MediaLikers(ctx context.Context, mediaID string) ([]models.Liker, error) {
	return nil, nil
}

func (f *fakeAPI) MediaComments(ctx context.Context, mediaID string, limit int) ([]models.Comment, error) {
	return []models.Comment{{Username: "fan", Text: "great reel"}}, nil
}

func (f *fakeAPI) Stories(ctx context.Context, userID string) ([]models.Story, error) {
	return nil, nil
}

func (f *fakeAPI) Highlights(ctx context.Context, userID string) ([]models.Highlight, error) {
	return nil, nil
}

func (f *fakeAPI) TopSearch(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	return f.search, nil
}

type stubDownloader struct {
	plans []*models.DownloadPlan
}

func (d *stubDownloader) Run(ctx context.Context, plan *models.DownloadPlan) (*models.DownloadResult, error) {
	d.plans = append(d.plans, plan)
	files := make([]string, len(plan.Assets))
	for i, a := range plan.Assets {
		files[i] = a.Filename
	}
	return &models.DownloadResult{Dir: "/tmp/downloads", Files: files}, nil
}

// answerServer replies to every chat completion with one fixed answer.
func answerServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`,
			mustJSON(answer))
	}))
	t.Cleanup(server.Close)
	return server
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type fixture struct {
	api  *fakeAPI
	sess *session.Context
	dl   *stubDownloader
	repl *REPL
	out  *bytes.Buffer
}

func newFixture(t *testing.T, answer string) *fixture {
	t.Helper()
	api := newFakeAPI()
	api.addUser("natgeo", "u_1", 283_000_000)
	api.addUser("big_fan", "u_2", 50_000)
	api.addReel("AAA11", "natgeo", 1_000_000)
	api.followers["u_1"] = []models.FollowerSummary{
		{Username: "big_fan"},
		{Username: "quiet_one"},
	}
	api.search = []models.SearchResult{
		{Kind: models.TargetProfile, Username: "natgeo", FollowerCount: 283_000_000},
	}

	log := logger.NewTestLogger()
	sess := session.New()
	svc := stats.New(api, sess, log)

	exporter, err := export.NewExporter(t.TempDir(), log)
	require.NoError(t, err)

	server := answerServer(t, answer)
	llmCfg := &config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}
	client := agent.NewClient(llmCfg, log)
	dl := &stubDownloader{}
	executor := agent.NewExecutor(svc, exporter, dl, sess, log)
	ag := agent.New(client, executor, sess, 4, log)

	var out bytes.Buffer
	r := New(Options{
		Service:    svc,
		Exporter:   exporter,
		Agent:      ag,
		Downloader: dl,
		Session:    sess,
		Renderer:   ui.NewRenderer(&out, ui.ModePlain),
		Spinner:    ui.NewSpinner(&out, ui.ModePlain),
		Logger:     log,
		In:         nil,
		Out:        &out,
	})
	return &fixture{api: api, sess: sess, dl: dl, repl: r, out: &out}
}

func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	f.repl.in = strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, f.repl.Run(context.Background()))
	return f.out.String()
}

func TestRunStatsThenContextualCommands(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "stats @natgeo", "followers", "budget", "exit")

	assert.Contains(t, out, "@natgeo")
	assert.Contains(t, out, "283M")
	assert.Contains(t, out, "@big_fan")
	assert.Contains(t, out, "api budget:")
	// the followers command reused the cached profile
	assert.Equal(t, 1, f.api.userLookups)
}

func TestRunBareHandleIsStats(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "@natgeo", "exit")
	assert.Contains(t, out, "283M")
}

func TestRunBareUsernameIsStats(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "natgeo", "exit")
	assert.Contains(t, out, "283M")
}

func TestRunReelThenDownload(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "reel AAA11", "download media", "exit")

	assert.Contains(t, out, "AAA11")
	assert.Contains(t, out, "downloaded 1 file(s)")
	require.Len(t, f.dl.plans, 1)
	assert.Equal(t, "natgeo_AAA11.mp4", f.dl.plans[0].Assets[0].Filename)
	require.NotNil(t, f.sess.LastDownload())
}

func TestRunSearchThenIndexSelection(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "search national geographic", "stats 1", "exit")

	assert.Contains(t, out, "use an index")
	assert.Contains(t, out, "283M")
}

func TestRunExportRequiresCollection(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "export csv", "exit")
	assert.Contains(t, out, "nothing to export")
}

func TestRunReelsThenExport(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "reels @natgeo", "export json", "exit")

	assert.Contains(t, out, "exported 1 rows")
	assert.NotEmpty(t, f.sess.LastExportPath())
}

func TestRunOpenLaunchesBrowser(t *testing.T) {
	f := newFixture(t, "")
	var opened []string
	f.repl.openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}

	out := f.run(t,
		"open @natgeo",
		"reel AAA11",
		"open", // contextual: current media wins
		"exit")

	require.Len(t, opened, 2)
	assert.Equal(t, "https://www.instagram.com/natgeo/", opened[0])
	assert.Equal(t, "https://www.instagram.com/reel/AAA11/", opened[1])
	assert.Contains(t, out, "opened")
}

func TestRunOpenWithoutContextFails(t *testing.T) {
	f := newFixture(t, "")
	f.repl.openURL = func(string) error { t.Fatal("should not open"); return nil }

	out := f.run(t, "open", "exit")
	assert.Contains(t, out, "nothing to open")
}

func TestRunTopFollowersClampsArguments(t *testing.T) {
	f := newFixture(t, "")
	var fans []models.FollowerSummary
	for i := 1; i <= 30; i++ {
		name := fmt.Sprintf("fan_%02d", i)
		f.api.addUser(name, fmt.Sprintf("uf_%02d", i), int64(1_000_000-i*1000))
		fans = append(fans, models.FollowerSummary{Username: name})
	}
	f.api.followers["u_1"] = fans

	out := f.run(t, "top-followers @natgeo 999 99", "exit")

	// Oversized arguments fall back to the interactive bounds.
	assert.Contains(t, out, "sampled 20 followers")
	assert.Contains(t, out, "fan_10")
	assert.NotContains(t, out, "fan_11")
}

func TestRunExportWithFilenameHint(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "reels @natgeo", "export csv june report", "exit")

	assert.Contains(t, out, "exported 1 rows")
	assert.Contains(t, filepath.Base(f.sess.LastExportPath()), "june-report_")
}

func TestRunFreeTextGoesToAgent(t *testing.T) {
	f := newFixture(t, "all quiet on the reel front")
	out := f.run(t, "how are the reels doing?", "exit")
	assert.Contains(t, out, "all quiet on the reel front")
}

func TestRunReloadClearsContext(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "stats @natgeo", "reload", "followers", "exit")

	assert.Contains(t, out, "session cleared")
	assert.Contains(t, out, "no profile in context")
}

func TestRunReloadRebuildsCollaborators(t *testing.T) {
	f := newFixture(t, "")

	log := logger.NewTestLogger()
	freshExporter, err := export.NewExporter(t.TempDir(), log)
	require.NoError(t, err)
	freshSvc := stats.New(newFakeAPI(), f.sess, log)

	called := 0
	f.repl.reload = func() (Options, error) {
		called++
		return Options{
			Service:    freshSvc,
			Exporter:   freshExporter,
			Agent:      f.repl.agent,
			Downloader: f.repl.downloader,
		}, nil
	}

	out := f.run(t, "reload", "exit")

	assert.Equal(t, 1, called)
	assert.Contains(t, out, "configuration reloaded")
	assert.Contains(t, out, "session cleared")
	assert.Same(t, freshSvc, f.repl.svc)
	assert.Same(t, freshExporter, f.repl.exporter)
}

func TestRunReloadSurfacesBuildError(t *testing.T) {
	f := newFixture(t, "")
	f.repl.reload = func() (Options, error) {
		return Options{}, errors.New(errors.ErrorTypeUnknown, "bad config")
	}

	out := f.run(t, "stats @natgeo", "reload", "followers", "exit")

	assert.Contains(t, out, "bad config")
	// A failed reload leaves the session intact, so the contextual
	// followers command still resolves natgeo.
	assert.Contains(t, out, "big_fan")
	assert.NotContains(t, out, "no profile in context")
}

func TestRunModelCommand(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "model", "model other-model", "model", "exit")

	assert.Contains(t, out, "test-model")
	assert.Contains(t, out, "model set to other-model")
	assert.Contains(t, out, "other-model")
}

func TestRunRenderToggle(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "render rich", "render plain", "render", "exit")

	assert.Contains(t, out, "rich output enabled")
	assert.Contains(t, out, "plain output enabled")
	assert.Contains(t, out, "plain")
}

func TestRunUnknownDownloadKind(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "download gifs", "exit")
	assert.Contains(t, out, "unknown download kind")
}

func TestRunHelpListsCommands(t *testing.T) {
	f := newFixture(t, "")
	out := f.run(t, "help", "exit")
	assert.Contains(t, out, "top-followers")
	assert.Contains(t, out, "export <csv|json>")
}

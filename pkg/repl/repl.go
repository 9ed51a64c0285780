package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"igstat/pkg/agent"
	"igstat/pkg/errors"
	"igstat/pkg/export"
	"igstat/pkg/logger"
	"igstat/pkg/models"
	"igstat/pkg/session"
	"igstat/pkg/stats"
	"igstat/pkg/target"
	"igstat/pkg/ui"
)

const prompt = "igstat> "

// Default bounds applied when a command omits its numeric arguments.
const (
	defaultReelsLimit     = 10
	defaultFollowersLimit = 25
	defaultCommentsLimit  = 20
	defaultSearchLimit    = 10
	defaultSampleSize     = 20
	defaultTopN           = 10
	defaultSamplerPages   = 2
)

// REPL is the interactive shell. Direct commands and agent questions
// share one session, so context built by either path serves both.
type REPL struct {
	svc        *stats.Service
	exporter   *export.Exporter
	agent      *agent.Agent
	downloader agent.Downloader
	sess       *session.Context
	render     *ui.Renderer
	spin       *ui.Spinner
	log        logger.Logger
	in         io.Reader
	out        io.Writer
	reload     func() (Options, error)
	openURL    func(string) error
}

// Options wires the REPL's collaborators.
type Options struct {
	Service    *stats.Service
	Exporter   *export.Exporter
	Agent      *agent.Agent
	Downloader agent.Downloader
	Session    *session.Context
	Renderer   *ui.Renderer
	Spinner    *ui.Spinner
	Logger     logger.Logger
	In         io.Reader
	Out        io.Writer

	// Reload rebuilds the collaborators from freshly read
	// configuration. Nil means reload only clears the session.
	Reload func() (Options, error)
}

// New builds a REPL from its options.
func New(opts Options) *REPL {
	return &REPL{
		svc:        opts.Service,
		exporter:   opts.Exporter,
		agent:      opts.Agent,
		downloader: opts.Downloader,
		sess:       opts.Session,
		render:     opts.Renderer,
		spin:       opts.Spinner,
		log:        opts.Logger,
		in:         opts.In,
		out:        opts.Out,
		reload:     opts.Reload,
		openURL:    openInBrowser,
	}
}

// Run reads input lines until EOF or an exit command.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, ui.Banner)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		fmt.Fprint(r.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd := Parse(scanner.Text())
		switch cmd.Route {
		case RouteEmpty:
			continue
		case RouteExit:
			return nil
		case RouteDirect:
			r.runDirect(ctx, cmd)
		case RouteAgent:
			r.runAgent(ctx, cmd.Raw)
		}
	}
}

// Dispatch executes one already-parsed command. The REPL loop and the
// one-shot CLI mode both funnel through here.
func (r *REPL) Dispatch(ctx context.Context, cmd Command) {
	switch cmd.Route {
	case RouteDirect:
		r.runDirect(ctx, cmd)
	case RouteAgent:
		r.runAgent(ctx, cmd.Raw)
	}
}

func (r *REPL) runDirect(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Name {
	case "help", "actions":
		r.printHelp()
	case "stats":
		err = r.cmdStats(ctx, cmd.Args)
	case "open":
		err = r.cmdOpen(cmd.Args)
	case "reel":
		err = r.cmdReel(ctx, cmd.Args)
	case "reels":
		err = r.cmdReels(ctx, cmd.Args)
	case "search":
		err = r.cmdSearch(ctx, cmd.Args)
	case "followers":
		err = r.cmdFollowers(ctx, cmd.Args)
	case "top-followers":
		err = r.cmdTopFollowers(ctx, cmd.Args)
	case "likers":
		err = r.cmdLikers(ctx, cmd.Args)
	case "rank-likers":
		err = r.cmdRankLikers(ctx, cmd.Args)
	case "comments":
		err = r.cmdComments(ctx, cmd.Args)
	case "stories":
		err = r.cmdStories(ctx, cmd.Args)
	case "highlights":
		err = r.cmdHighlights(ctx, cmd.Args)
	case "download":
		err = r.cmdDownload(ctx, cmd.Args)
	case "export":
		err = r.cmdExport(cmd.Args)
	case "last":
		r.cmdLast()
	case "model":
		r.cmdModel(cmd.Args)
	case "render":
		r.cmdRender(cmd.Args)
	case "reload":
		err = r.cmdReload()
	case "budget":
		r.render.Budget(r.sess.SnapshotBudget())
	case "ask":
		r.runAgent(ctx, strings.Join(cmd.Args, " "))
	default:
		err = errors.Newf(errors.ErrorTypeUnresolved, "unknown command %q", cmd.Name)
	}
	if err != nil {
		r.render.Error(err)
	}
}

func (r *REPL) runAgent(ctx context.Context, question string) {
	if strings.TrimSpace(question) == "" {
		r.render.Warn("nothing to ask")
		return
	}
	r.spin.Start("thinking")
	answer, err := r.agent.Ask(ctx, question)
	r.spin.Stop()
	if err != nil {
		r.render.Error(err)
		return
	}
	r.render.Answer(answer)
}

// resolveProfile turns an optional argument into a username, falling
// back to the session's current profile.
func (r *REPL) resolveProfile(input string) (string, error) {
	t := target.Resolve(input, r.targetContext())
	switch t.Kind {
	case models.TargetProfile:
		return t.Username, nil
	case models.TargetMedia:
		if media := r.sess.CurrentMedia(); media != nil && media.Shortcode == t.Shortcode && media.Owner != "" {
			return media.Owner, nil
		}
	}
	return "", errors.New(errors.ErrorTypeUnresolved,
		"no profile in context; pass a username, profile URL or search index")
}

func (r *REPL) resolveMedia(input string) (string, error) {
	t := target.ResolveMedia(input, r.targetContext())
	if t.Kind != models.TargetMedia {
		return "", errors.New(errors.ErrorTypeUnresolved,
			"no media in context; pass a reel URL, shortcode or search index")
	}
	return t.Shortcode, nil
}

// targetInput picks the argument that names a target. A leading number
// is only an index selection when it fits the last search results;
// otherwise it is a limit and the session context supplies the target.
func (r *REPL) targetInput(args []string) string {
	if len(args) == 0 {
		return ""
	}
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n >= 1 && n <= len(r.sess.LastSearch()) {
			return args[0]
		}
		return ""
	}
	return args[0]
}

// splitTargetArgs separates the target argument from the numeric tail.
func (r *REPL) splitTargetArgs(args []string) (string, []string) {
	input := r.targetInput(args)
	if input != "" {
		return input, args[1:]
	}
	return "", numericTail(args)
}

func (r *REPL) targetContext() target.Context {
	tc := target.Context{LastSearch: r.sess.LastSearch()}
	if p := r.sess.CurrentProfile(); p != nil {
		tc.CurrentProfileUsername = p.Username
	}
	if m := r.sess.CurrentMedia(); m != nil {
		tc.CurrentMediaShortcode = m.Shortcode
	}
	return tc
}

func (r *REPL) cmdStats(ctx context.Context, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	t := target.Resolve(input, r.targetContext())
	switch t.Kind {
	case models.TargetMedia:
		reel, err := r.fetchReel(ctx, t.Shortcode)
		if err != nil {
			return err
		}
		r.render.Reel(reel)
		return nil
	case models.TargetProfile:
		profile, err := r.fetchProfile(ctx, t.Username)
		if err != nil {
			return err
		}
		r.render.Profile(profile)
		return nil
	}
	return errors.New(errors.ErrorTypeUnresolved,
		"nothing to show; pass a username, URL or search index")
}

func (r *REPL) fetchProfile(ctx context.Context, username string) (*models.ProfileStats, error) {
	r.spin.Start("fetching @" + username)
	defer r.spin.Stop()
	return r.svc.ProfileStats(ctx, username)
}

func (r *REPL) fetchReel(ctx context.Context, shortcode string) (*models.ReelStats, error) {
	r.spin.Start("fetching " + shortcode)
	defer r.spin.Stop()
	return r.svc.ReelStats(ctx, shortcode)
}

func (r *REPL) cmdReel(ctx context.Context, args []string) error {
	shortcode, err := r.resolveMedia(r.targetInput(args))
	if err != nil {
		return err
	}
	reel, err := r.fetchReel(ctx, shortcode)
	if err != nil {
		return err
	}
	r.render.Reel(reel)
	return nil
}

func (r *REPL) cmdReels(ctx context.Context, args []string) error {
	input, rest := r.splitTargetArgs(args)
	username, err := r.resolveProfile(input)
	if err != nil {
		return err
	}
	limit := intArg(rest, 0, defaultReelsLimit)
	daysBack := intArg(rest, 1, 0)

	r.spin.Start("fetching reels")
	reels, err := r.svc.ProfileReels(ctx, username, limit, daysBack, stats.MaxReelsPages)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Reels(reels)
	return nil
}

func (r *REPL) cmdSearch(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return errors.New(errors.ErrorTypeUnresolved, "search needs a query")
	}
	r.spin.Start("searching")
	results, err := r.svc.Search(ctx, query, defaultSearchLimit)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.SearchResults(results)
	return nil
}

func (r *REPL) cmdFollowers(ctx context.Context, args []string) error {
	input, rest := r.splitTargetArgs(args)
	username, err := r.resolveProfile(input)
	if err != nil {
		return err
	}
	limit := intArg(rest, 0, defaultFollowersLimit)

	r.spin.Start("fetching followers")
	followers, err := r.svc.FollowersPage(ctx, username, limit)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Followers(followers)
	return nil
}

func (r *REPL) cmdTopFollowers(ctx context.Context, args []string) error {
	input, rest := r.splitTargetArgs(args)
	username, err := r.resolveProfile(input)
	if err != nil {
		return err
	}
	// Interactive runs stay cheap: tighter bounds than the sampler's own.
	sampleSize := clamp(intArg(rest, 0, defaultSampleSize), 5, 20)
	topN := clamp(intArg(rest, 1, defaultTopN), 1, 10)

	r.spin.Start("sampling followers")
	result, err := r.svc.EstimateTopFollowers(ctx, username, sampleSize, topN, defaultSamplerPages)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Sample(result)
	return nil
}

func (r *REPL) cmdLikers(ctx context.Context, args []string) error {
	shortcode, err := r.resolveMedia(r.targetInput(args))
	if err != nil {
		return err
	}
	r.spin.Start("fetching likers")
	likers, note, err := r.svc.MediaLikers(ctx, shortcode)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Likers(likers, note)
	return nil
}

func (r *REPL) cmdRankLikers(ctx context.Context, args []string) error {
	refs := args
	topN := defaultTopN
	if n := len(refs); n > 0 {
		if v, err := strconv.Atoi(refs[n-1]); err == nil {
			topN = v
			refs = refs[:n-1]
		}
	}
	if len(refs) == 0 {
		if media := r.sess.CurrentMedia(); media != nil {
			refs = []string{media.Shortcode}
		}
	}
	if len(refs) == 0 {
		return errors.New(errors.ErrorTypeUnresolved,
			"rank-likers needs at least one reel URL or shortcode")
	}

	r.spin.Start("ranking likers")
	ranked, _, err := r.svc.RankLikersByFollowers(ctx, refs, topN)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Likers(ranked, "")
	return nil
}

func (r *REPL) cmdComments(ctx context.Context, args []string) error {
	input, rest := r.splitTargetArgs(args)
	shortcode, err := r.resolveMedia(input)
	if err != nil {
		return err
	}
	limit := intArg(rest, 0, defaultCommentsLimit)

	r.spin.Start("fetching comments")
	comments, err := r.svc.MediaComments(ctx, shortcode, limit)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Comments(comments)
	return nil
}

func (r *REPL) cmdStories(ctx context.Context, args []string) error {
	username, err := r.resolveProfile(r.targetInput(args))
	if err != nil {
		return err
	}
	r.spin.Start("fetching stories")
	stories, err := r.svc.StoriesFor(ctx, username)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Stories(stories)
	return nil
}

func (r *REPL) cmdHighlights(ctx context.Context, args []string) error {
	username, err := r.resolveProfile(r.targetInput(args))
	if err != nil {
		return err
	}
	r.spin.Start("fetching highlights")
	highlights, err := r.svc.HighlightsFor(ctx, username)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.render.Highlights(highlights)
	return nil
}

func (r *REPL) cmdDownload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(errors.ErrorTypeUnresolved,
			"download needs a kind: media, audio, stories or highlights")
	}
	kind := strings.ToLower(args[0])
	rest := args[1:]

	var plan *models.DownloadPlan
	var err error
	switch kind {
	case "media":
		var shortcode string
		if shortcode, err = r.resolveMedia(r.targetInput(rest)); err == nil {
			plan, err = r.svc.PlanMediaDownload(ctx, shortcode)
		}
	case "audio":
		var shortcode string
		if shortcode, err = r.resolveMedia(r.targetInput(rest)); err == nil {
			plan, err = r.svc.PlanAudioDownload(ctx, shortcode)
		}
	case "stories":
		var username string
		if username, err = r.resolveProfile(r.targetInput(rest)); err == nil {
			plan, err = r.svc.PlanStoriesDownload(ctx, username)
		}
	case "highlights":
		var username string
		if username, err = r.resolveProfile(r.targetInput(rest)); err == nil {
			plan, err = r.svc.PlanHighlightsDownload(ctx, username)
		}
	default:
		err = errors.Newf(errors.ErrorTypeUnresolved, "unknown download kind %q", kind)
	}
	if err != nil {
		return err
	}

	r.spin.Start("downloading")
	result, err := r.downloader.Run(ctx, plan)
	r.spin.Stop()
	if err != nil {
		return err
	}
	r.sess.SetDownload(result)
	r.render.Download(result)
	return nil
}

func (r *REPL) cmdExport(args []string) error {
	if len(args) == 0 {
		return errors.New(errors.ErrorTypeUnresolved, "export needs a format: csv or json")
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		return err
	}
	col := r.sess.LastCollection()
	if col.Len() == 0 {
		return errors.New(errors.ErrorTypeExportTargetMissing,
			"nothing to export yet; run a data command first")
	}
	hint := strings.Join(args[1:], " ")
	result, err := r.exporter.Export(col, format, hint)
	if err != nil {
		return err
	}
	r.sess.SetExportPath(result.Path)
	r.render.Export(result.Path, result.RowCount)
	return nil
}

// cmdOpen resolves the target and opens its canonical URL in the
// system browser. Media wins over profile when both are in context.
func (r *REPL) cmdOpen(args []string) error {
	t := target.Resolve(r.targetInput(args), r.targetContext())

	var url string
	switch t.Kind {
	case models.TargetMedia:
		url = target.MediaURL(t.Shortcode)
	case models.TargetProfile:
		url = target.ProfileURL(t.Username)
	default:
		return errors.New(errors.ErrorTypeUnresolved,
			"nothing to open; give a profile, a URL, or fetch something first")
	}

	if err := r.openURL(url); err != nil {
		return errors.Newf(errors.ErrorTypeUnknown, "failed to open %s: %v", url, err)
	}
	r.render.Info("opened", url)
	return nil
}

// cmdReload re-reads configuration, swaps in freshly built
// collaborators and clears the session.
func (r *REPL) cmdReload() error {
	if r.reload != nil {
		opts, err := r.reload()
		if err != nil {
			return err
		}
		r.svc = opts.Service
		r.exporter = opts.Exporter
		r.agent = opts.Agent
		r.downloader = opts.Downloader
		if opts.Logger != nil {
			r.log = opts.Logger
		}
		r.render.Success("configuration reloaded")
	}
	r.sess.Reset()
	r.render.Success("session cleared")
	return nil
}

func (r *REPL) cmdLast() {
	col := r.sess.LastCollection()
	if col.Len() == 0 {
		r.render.Warn("no collection in this session yet")
		return
	}
	r.render.Info("collection", fmt.Sprintf("%s (%s, %d rows)", col.Name, col.Kind, col.Len()))
	if path := r.sess.LastExportPath(); path != "" {
		r.render.Info("last export", path)
	}
}

func (r *REPL) cmdModel(args []string) {
	client := r.agent.Client()
	if len(args) == 0 {
		r.render.Info("model", client.Model())
		return
	}
	client.SetModel(args[0])
	r.render.Success("model set to " + args[0])
}

func (r *REPL) cmdRender(args []string) {
	if len(args) == 0 {
		r.render.Info("render", string(r.render.CurrentMode()))
		return
	}
	switch strings.ToLower(args[0]) {
	case "rich":
		r.render.SetMode(ui.ModeRich)
		r.render.Success("rich output enabled")
	case "plain":
		r.render.SetMode(ui.ModePlain)
		r.render.Success("plain output enabled")
	default:
		r.render.Warn("render takes rich or plain")
	}
}

func (r *REPL) printHelp() {
	help := []struct{ cmd, desc string }{
		{"stats <target>", "profile or reel stats (also: bare @user or URL)"},
		{"reel <target>", "stats for one reel"},
		{"reels <target> [limit] [days_back]", "recent reels, newest first"},
		{"search <query>", "find profiles and media"},
		{"open [target]", "open a profile or reel in the browser"},
		{"followers <target> [limit]", "one page of followers"},
		{"top-followers <target> [sample] [top_n]", "estimate biggest followers"},
		{"likers <target>", "who liked a reel"},
		{"rank-likers <refs...> [top_n]", "rank likers across reels by reach"},
		{"comments <target> [limit]", "recent comments"},
		{"stories <target>", "active stories"},
		{"highlights <target>", "highlight trays"},
		{"download <media|audio|stories|highlights> [target]", "save assets to disk"},
		{"export <csv|json> [name]", "export the last result set"},
		{"last", "show the last result set"},
		{"budget", "API requests spent this session"},
		{"model [id]", "show or switch the LLM model"},
		{"render [rich|plain]", "toggle styled output"},
		{"reload", "re-read config and clear the session"},
		{"ask <question>", "ask the assistant (or just type a question)"},
		{"exit", "leave"},
	}
	for _, h := range help {
		fmt.Fprintf(r.out, "  %-46s %s\n", h.cmd, h.desc)
	}
}

// numericTail returns the trailing run of numeric arguments, so
// "reels @user 5 30" yields ["5" "30"] whether or not the target was
// given explicitly.
func numericTail(args []string) []string {
	start := len(args)
	for start > 0 {
		if _, err := strconv.Atoi(args[start-1]); err != nil {
			break
		}
		start--
	}
	return args[start:]
}

func intArg(args []string, idx, fallback int) int {
	if idx >= len(args) {
		return fallback
	}
	v, err := strconv.Atoi(args[idx])
	if err != nil {
		return fallback
	}
	return v
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

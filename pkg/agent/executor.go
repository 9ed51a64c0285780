package agent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/export"
	"igstat/pkg/logger"
	"igstat/pkg/models"
	"igstat/pkg/session"
	"igstat/pkg/stats"
	"igstat/pkg/target"
)

// Downloader executes a download plan against the CDN.
type Downloader interface {
	Run(ctx context.Context, plan *models.DownloadPlan) (*models.DownloadResult, error)
}

// Executor dispatches tool calls onto the stats service, exporter and
// downloader. Every call returns a JSON payload; failures are encoded
// as {"ok":false,...} rather than surfaced as Go errors, so the model
// can read and react to them.
type Executor struct {
	svc        *stats.Service
	exporter   *export.Exporter
	downloader Downloader
	sess       *session.Context
	log        logger.Logger
}

// NewExecutor wires the executor onto live components.
func NewExecutor(svc *stats.Service, exporter *export.Exporter, downloader Downloader, sess *session.Context, log logger.Logger) *Executor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Executor{svc: svc, exporter: exporter, downloader: downloader, sess: sess, log: log}
}

// toolArgs is the superset of arguments across all tools; absent
// fields stay zero and each handler applies its own defaults.
type toolArgs struct {
	Target     string   `json:"target"`
	Targets    []string `json:"targets"`
	Query      string   `json:"query"`
	Limit      int      `json:"limit"`
	DaysBack   int      `json:"days_back"`
	SampleSize int      `json:"sample_size"`
	TopN       int      `json:"top_n"`
	MaxPages   int      `json:"max_pages"`
	Metric     string   `json:"metric"`
	Format     string   `json:"format"`
	Hint       string   `json:"filename_hint"`
}

// Execute runs one tool call and returns its JSON result payload.
// Unparseable arguments degrade to empty arguments instead of failing
// the whole call.
func (e *Executor) Execute(ctx context.Context, call ToolCall) string {
	var args toolArgs
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			e.log.WithError(err).WithField("tool", call.Function.Name).Debug("bad tool arguments, using defaults")
			args = toolArgs{}
		}
	}

	start := time.Now()
	result := e.dispatch(ctx, call, args)
	ok := !strings.HasPrefix(result, `{"ok":false`)
	logger.LogToolCall(call.Function.Name, ok, float64(time.Since(start).Microseconds())/1000.0)
	return result
}

func (e *Executor) dispatch(ctx context.Context, call ToolCall, args toolArgs) string {
	switch call.Function.Name {
	case "get_profile_stats":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.ProfileStats(ctx, username)
		})
	case "search_instagram":
		if args.Query == "" {
			return toolErr(errors.New(errors.ErrorTypeUnresolved, "search requires a query"))
		}
		return toolRun(func() (interface{}, error) {
			return e.svc.Search(ctx, args.Query, orDefault(args.Limit, 10))
		})
	case "get_reel_stats":
		return e.withMedia(args, func(shortcode string) (interface{}, error) {
			return e.svc.ReelStats(ctx, shortcode)
		})
	case "get_recent_reels":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.RecentReels(ctx, username, orDefault(args.Limit, 5))
		})
	case "get_profile_reels":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.ProfileReels(ctx, username, orDefault(args.Limit, 10), args.DaysBack, stats.MaxReelsPages)
		})
	case "get_followers_page":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.FollowersPage(ctx, username, orDefault(args.Limit, 25))
		})
	case "get_top_followers":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.EstimateTopFollowers(ctx, username,
				orDefault(args.SampleSize, 20), orDefault(args.TopN, 10), orDefault(args.MaxPages, 2))
		})
	case "get_media_comments":
		return e.withMedia(args, func(shortcode string) (interface{}, error) {
			return e.svc.MediaComments(ctx, shortcode, orDefault(args.Limit, 20))
		})
	case "get_profile_stories":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.StoriesFor(ctx, username)
		})
	case "get_profile_highlights":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.svc.HighlightsFor(ctx, username)
		})
	case "download_media_content":
		return e.withMedia(args, func(shortcode string) (interface{}, error) {
			return e.runPlan(ctx, func() (*models.DownloadPlan, error) {
				return e.svc.PlanMediaDownload(ctx, shortcode)
			})
		})
	case "download_media_audio":
		return e.withMedia(args, func(shortcode string) (interface{}, error) {
			return e.runPlan(ctx, func() (*models.DownloadPlan, error) {
				return e.svc.PlanAudioDownload(ctx, shortcode)
			})
		})
	case "download_profile_stories":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.runPlan(ctx, func() (*models.DownloadPlan, error) {
				return e.svc.PlanStoriesDownload(ctx, username)
			})
		})
	case "download_profile_highlights":
		return e.withProfile(args, func(username string) (interface{}, error) {
			return e.runPlan(ctx, func() (*models.DownloadPlan, error) {
				return e.svc.PlanHighlightsDownload(ctx, username)
			})
		})
	case "get_media_likers":
		return e.withMedia(args, func(shortcode string) (interface{}, error) {
			likers, note, err := e.svc.MediaLikers(ctx, shortcode)
			if err != nil {
				return nil, err
			}
			payload := map[string]interface{}{"likers": likers}
			if note != "" {
				payload["note"] = note
			}
			return payload, nil
		})
	case "rank_media_likers_by_followers":
		refs := args.Targets
		if len(refs) == 0 && args.Target != "" {
			refs = []string{args.Target}
		}
		if len(refs) == 0 {
			if m := e.sess.CurrentMedia(); m != nil {
				refs = []string{m.Shortcode}
			}
		}
		return toolRun(func() (interface{}, error) {
			ranked, _, err := e.svc.RankLikersByFollowers(ctx, refs, orDefault(args.TopN, 10))
			return ranked, err
		})
	case "get_last_reel_metric":
		return e.withProfile(args, func(username string) (interface{}, error) {
			value, reel, err := e.svc.LastReelMetric(ctx, username, args.Metric)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"metric":    args.Metric,
				"value":     value,
				"shortcode": reel.Shortcode,
				"url":       reel.URL,
			}, nil
		})
	case "export_session_data":
		return toolRun(func() (interface{}, error) {
			format, err := export.ParseFormat(args.Format)
			if err != nil {
				return nil, err
			}
			col := e.sess.LastCollection()
			if col.Len() == 0 {
				return nil, errors.New(errors.ErrorTypeExportTargetMissing, "nothing to export yet; fetch some data first")
			}
			result, err := e.exporter.Export(col, format, args.Hint)
			if err != nil {
				return nil, err
			}
			e.sess.SetExportPath(result.Path)
			return result, nil
		})
	case "get_session_context":
		return toolRun(func() (interface{}, error) {
			return e.sess.Snapshot(), nil
		})
	default:
		return toolErr(errors.Newf(errors.ErrorTypeUnresolved, "unknown tool %q", call.Function.Name))
	}
}

// withProfile resolves args.Target to a username and runs fn.
func (e *Executor) withProfile(args toolArgs, fn func(username string) (interface{}, error)) string {
	username, err := e.resolveProfile(args.Target)
	if err != nil {
		return toolErr(err)
	}
	return toolRun(func() (interface{}, error) { return fn(username) })
}

// withMedia resolves args.Target to a shortcode and runs fn.
func (e *Executor) withMedia(args toolArgs, fn func(shortcode string) (interface{}, error)) string {
	t := target.ResolveMedia(args.Target, e.targetContext())
	if t.Kind != models.TargetMedia {
		return toolErr(errors.Newf(errors.ErrorTypeUnresolved, "could not resolve %q to a media; give a reel URL or shortcode", args.Target))
	}
	return toolRun(func() (interface{}, error) { return fn(t.Shortcode) })
}

func (e *Executor) resolveProfile(input string) (string, error) {
	t := target.Resolve(input, e.targetContext())
	switch t.Kind {
	case models.TargetProfile:
		return t.Username, nil
	case models.TargetMedia:
		// A media reference still names a profile through its owner.
		if m := e.sess.CurrentMedia(); m != nil && m.Shortcode == t.Shortcode && m.Owner != "" {
			return m.Owner, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeUnresolved, "could not resolve %q to a profile; give a username, @handle or profile URL", input)
}

func (e *Executor) runPlan(ctx context.Context, plan func() (*models.DownloadPlan, error)) (interface{}, error) {
	p, err := plan()
	if err != nil {
		return nil, err
	}
	result, err := e.downloader.Run(ctx, p)
	if err != nil {
		return nil, err
	}
	e.sess.SetDownload(result)
	return result, nil
}

func (e *Executor) targetContext() target.Context {
	tc := target.Context{LastSearch: e.sess.LastSearch()}
	if p := e.sess.CurrentProfile(); p != nil {
		tc.CurrentProfileUsername = p.Username
	}
	if m := e.sess.CurrentMedia(); m != nil {
		tc.CurrentMediaShortcode = m.Shortcode
	}
	return tc
}

func toolRun(fn func() (interface{}, error)) string {
	result, err := fn()
	if err != nil {
		return toolErr(err)
	}
	return toolOK(result)
}

func toolOK(result interface{}) string {
	data, err := json.Marshal(map[string]interface{}{"ok": true, "result": result})
	if err != nil {
		return `{"ok":false,"error":{"type":"unknown","message":"failed to encode tool result"}}`
	}
	return string(data)
}

func toolErr(err error) string {
	data, mErr := json.Marshal(map[string]interface{}{
		"ok": false,
		"error": map[string]interface{}{
			"type":    string(errors.TypeOf(err)),
			"message": err.Error(),
		},
	})
	if mErr != nil {
		return `{"ok":false,"error":{"type":"unknown","message":"failed to encode tool error"}}`
	}
	return string(data)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

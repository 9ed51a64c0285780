package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"igstat/internal/downloader"
	"igstat/pkg/agent"
	"igstat/pkg/auth"
	"igstat/pkg/config"
	"igstat/pkg/export"
	"igstat/pkg/hiker"
	"igstat/pkg/logger"
	"igstat/pkg/ratelimit"
	"igstat/pkg/repl"
	"igstat/pkg/session"
	"igstat/pkg/stats"
	"igstat/pkg/ui"
)

// app holds the wired-up application.
type app struct {
	cfg      *config.Config
	sess     *session.Context
	svc      *stats.Service
	agent    *agent.Agent
	renderer *ui.Renderer
	repl     *repl.REPL
}

// buildApp loads configuration and wires every component the shell
// needs. Stored keychain credentials are surfaced through the
// environment so the config precedence chain stays intact.
func buildApp() (*app, error) {
	seedCredentialsFromKeychain()

	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	mode := ui.ModeRich
	if plainMode || !term.IsTerminal(int(os.Stdout.Fd())) {
		mode = ui.ModePlain
	}
	renderer := ui.NewRenderer(os.Stdout, mode)
	spinner := ui.NewSpinner(os.Stdout, mode)

	sess := session.New()
	svc, exporter, ag, dl, err := buildComponents(cfg, sess, log)
	if err != nil {
		return nil, err
	}

	shell := repl.New(repl.Options{
		Service:    svc,
		Exporter:   exporter,
		Agent:      ag,
		Downloader: dl,
		Session:    sess,
		Renderer:   renderer,
		Spinner:    spinner,
		Logger:     log,
		In:         os.Stdin,
		Out:        os.Stdout,
		Reload:     reloadFunc(sess),
	})

	return &app{
		cfg:      cfg,
		sess:     sess,
		svc:      svc,
		agent:    ag,
		renderer: renderer,
		repl:     shell,
	}, nil
}

// buildComponents wires the data service, exporter, agent and
// downloader against a shared session.
func buildComponents(cfg *config.Config, sess *session.Context, log logger.Logger) (*stats.Service, *export.Exporter, *agent.Agent, *downloader.Downloader, error) {
	api := hiker.NewClient(&cfg.API, &cfg.Retry, log)
	svc := stats.New(api, sess, log)

	exporter, err := export.NewExporter(filepath.Join(cfg.Output.BaseDirectory, cfg.Output.ExportsDir), log)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// CDN fetches are unmetered but still paced: bursts of 8, topped
	// up every second.
	dl, err := downloader.New(
		filepath.Join(cfg.Output.BaseDirectory, cfg.Output.DownloadsDir),
		log,
		downloader.WithLimiter(ratelimit.NewTokenBucket(8, time.Second)),
	)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	client := agent.NewClient(&cfg.LLM, log)
	executor := agent.NewExecutor(svc, exporter, dl, sess, log)
	ag := agent.New(client, executor, sess, cfg.LLM.MaxSteps, log)

	return svc, exporter, ag, dl, nil
}

// reloadFunc re-reads .env, keychain and config files and rebuilds
// every client against the existing session.
func reloadFunc(sess *session.Context) func() (repl.Options, error) {
	return func() (repl.Options, error) {
		seedCredentialsFromKeychain()

		cfg, err := config.Load(configFile, commandFlags())
		if err != nil {
			return repl.Options{}, err
		}
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return repl.Options{}, fmt.Errorf("failed to initialize logger: %w", err)
		}
		log := logger.GetLogger()

		svc, exporter, ag, dl, err := buildComponents(cfg, sess, log)
		if err != nil {
			return repl.Options{}, err
		}
		return repl.Options{
			Service:    svc,
			Exporter:   exporter,
			Agent:      ag,
			Downloader: dl,
			Logger:     log,
		}, nil
	}
}

// seedCredentialsFromKeychain exports stored keys into the process
// environment when the variables are not already set, so keychain
// credentials participate in normal config precedence.
func seedCredentialsFromKeychain() {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	if os.Getenv("HIKERAPI_TOKEN") == "" && os.Getenv("HIKERAPI_KEY") == "" {
		if cred, err := manager.Retrieve(auth.ServiceDataAPI); err == nil {
			os.Setenv("HIKERAPI_TOKEN", cred.Key)
		}
	}
	if os.Getenv("OPENROUTER_API_KEY") == "" {
		if cred, err := manager.Retrieve(auth.ServiceLLM); err == nil {
			os.Setenv("OPENROUTER_API_KEY", cred.Key)
		}
	}
}

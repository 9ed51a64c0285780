package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	plainMode  bool
	quietMode  bool
	modelFlag  string
	outputDir  string
)

// rootCmd starts the interactive shell when called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "igstat",
	Short: "Instagram analytics in your terminal",
	Long: `igstat is a terminal client for Instagram analytics.

It answers questions about profiles and reels through a metered data
API, estimates audiences with budget-bounded sampling, and carries an
LLM assistant that can drive every command through tool calls.

Features:
  - Profile and reel statistics with virality scoring
  - Budget-bounded follower sampling and liker ranking
  - Free-form questions answered by a tool-calling assistant
  - CSV and JSON exports with provenance sidecars
  - Media, audio, story and highlight downloads
  - Secure API key storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		return app.repl.Run(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is igstat.yaml or ~/.config/igstat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&plainMode, "plain", false, "plain output without colors or panels")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "suppress logs, print results only")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override the assistant model")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "base directory for exports and downloads")

	rootCmd.SetVersionTemplate(`igstat {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandFlags collects persistent flag overrides for config merging.
func commandFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quietMode {
		flags["log-level"] = "error"
	}
	if modelFlag != "" {
		flags["model"] = modelFlag
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	return flags
}

// joinArgs rebuilds the original input line from cobra args.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

package main

import (
	"github.com/spf13/cobra"

	"igstat/pkg/repl"
)

// oneShot runs a single shell command and exits, for scripting and
// piping without entering the interactive loop.
func oneShot(cmd *cobra.Command, line string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	application.repl.Dispatch(cmd.Context(), repl.Parse(line))
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats <target>",
	Short: "Show stats for a profile or reel and exit",
	Long: `Fetch and print stats for a single target without starting the
interactive shell. The target can be a @handle, a profile URL, a reel
URL or a bare shortcode.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(cmd, "stats "+joinArgs(args))
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a single question and exit",
	Long: `Send one natural-language question to the assistant, print the
answer and exit. The assistant can call the same data operations the
interactive shell exposes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(cmd, "ask "+joinArgs(args))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <target> [format]",
	Short: "Fetch recent reels for a profile and export them",
	Long: `Fetch the recent reels of a profile and export the collection in
one step. Format is csv or json and defaults to csv.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		application.repl.Dispatch(ctx, repl.Parse("reels "+args[0]))
		line := "export"
		if len(args) == 2 {
			line += " " + args[1]
		}
		application.repl.Dispatch(ctx, repl.Parse(line))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(exportCmd)
}

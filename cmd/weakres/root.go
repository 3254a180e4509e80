// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "weakres",
		Short: "Resolve modules by simple name and record the conflicts",
		Long: TitleStyle.Render("weakres") + SubtitleStyle.Render(" - weak module name resolution") + `

weakres installs a resolver that answers failed module loads with any loaded
module sharing the wanted simple name, ignoring version, culture and public key
token. Every answered request is captured as a conflict record.

` + SubtitleStyle.Render("Examples:") + `
  weakres resolve --manifest host.yaml     Replay a manifest and print conflicts
  weakres match "Lib, Version=2.0" "Lib, Version=1.0" "Lib, Version=1.5"
  weakres parse "Lib, Version=1.0.0.0, PublicKeyToken=null"
  weakres explain module-not-found         Explain an error`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.configureLogging(app.settings(cmd.Context()))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/weakres/config.cue)")

	rootCmd.AddCommand(
		newResolveCommand(app),
		newMatchCommand(app),
		newParseCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

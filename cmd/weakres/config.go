// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weakres/weakres/internal/config"
)

// newConfigCommand creates the `weakres config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage weakres configuration",
		Long: `Manage weakres configuration.

Configuration is stored in:
  - Linux: ~/.config/weakres/config.cue
  - macOS: ~/Library/Application Support/weakres/config.cue
  - Windows: %APPDATA%\weakres\config.cue

WEAKRES_* environment variables override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadWithSource(cmd.Context(), config.LoadOptions{ConfigFilePath: app.cfgFile})
			if err != nil {
				return err
			}
			source := loaded.Path
			if source == "" {
				source = "(defaults)"
			}
			fmt.Fprintln(app.stderr, SubtitleStyle.Render("source: "+source))
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Save(config.DefaultConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("wrote ")+path)
			return nil
		},
	})

	return cfgCmd
}

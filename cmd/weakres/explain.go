// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weakres/weakres/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain an error and how to fix it",
		Long: `Render the guidance for an issue. Without an argument, list the known issues.

Errors printed by weakres end with the issue name to pass here.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintln(app.stdout, i.Name())
				}
				return nil
			}

			i := issue.Lookup(args[0])
			if i == nil {
				return fmt.Errorf("unknown issue %q (run 'weakres explain' to list them)", args[0])
			}
			out, err := i.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")

	return cmd
}

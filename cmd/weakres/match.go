// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weakres/weakres/internal/issue"
	"github.com/weakres/weakres/pkg/modident"
	"github.com/weakres/weakres/pkg/weakmatch"
)

// exitNoMatch is returned by match when no candidate shares the wanted simple name.
const exitNoMatch = 1

func newMatchCommand(app *App) *cobra.Command {
	var (
		caseInsensitive bool
		tieBreak        []string
	)

	cmd := &cobra.Command{
		Use:   "match <wanted> <candidate>...",
		Short: "Show which candidate the weak resolver would choose",
		Long: `Pick the best candidate for a wanted identity the way the installed resolver
does: simple names must match, then the configured tie-break rules apply, and the
first listed candidate wins any remaining tie.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.settings(cmd.Context())
			opts, err := cfg.MatcherOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("case-insensitive") {
				opts = append(opts, weakmatch.WithCaseInsensitive(caseInsensitive))
			}
			if cmd.Flags().Changed("tie-break") {
				rules := make([]weakmatch.Rule, 0, len(tieBreak))
				for _, name := range tieBreak {
					r, err := weakmatch.ParseRule(name)
					if err != nil {
						return issue.NewErrorContext().
							WithOperation("parse --tie-break").
							WithIssue(issue.UnknownTieBreakRuleId).
							Wrap(err).
							BuildError()
					}
					rules = append(rules, r)
				}
				opts = append(opts, weakmatch.WithTieBreak(rules...))
			}
			return runMatch(app, weakmatch.NewMatcher(opts...), args[0], args[1:])
		},
	}

	cmd.Flags().BoolVarP(&caseInsensitive, "case-insensitive", "i", false, "compare simple names ignoring case")
	cmd.Flags().StringSliceVar(&tieBreak, "tie-break", nil, "tie-break rules in priority order (highest-version, prefer-signed, first-loaded)")

	return cmd
}

func runMatch(app *App, matcher *weakmatch.Matcher, wantedArg string, candidateArgs []string) error {
	wanted, err := parseIdentityArg(wantedArg)
	if err != nil {
		return err
	}
	candidates := make([]modident.Identity, 0, len(candidateArgs))
	for _, arg := range candidateArgs {
		c, err := parseIdentityArg(arg)
		if err != nil {
			return err
		}
		candidates = append(candidates, c)
	}

	idx, err := matcher.MatchIndex(&wanted, candidates)
	if err != nil {
		return err
	}

	rules := make([]string, 0, len(matcher.Rules()))
	for _, r := range matcher.Rules() {
		rules = append(rules, r.String())
	}
	fmt.Fprintln(app.stderr, SubtitleStyle.Render("rules: "+strings.Join(rules, " > ")))

	if idx < 0 {
		fmt.Fprintln(app.stdout, ErrorStyle.Render("no match")+" for "+IdentityStyle.Render(wanted.FullName()))
		return &ExitError{Code: exitNoMatch, Err: fmt.Errorf("no candidate matches %q", wanted.Name())}
	}

	chosen := candidates[idx]
	marker := SuccessStyle.Render("exact")
	if !chosen.StrongEqual(wanted) {
		marker = WarningStyle.Render("weak")
	}
	fmt.Fprintf(app.stdout, "%s [%d] %s\n", marker, idx, IdentityStyle.Render(chosen.FullName()))
	return nil
}

func parseIdentityArg(arg string) (modident.Identity, error) {
	id, err := modident.Parse(arg)
	if err != nil {
		return modident.Identity{}, issue.NewErrorContext().
			WithOperation("parse identity").
			WithResource(arg).
			WithIssue(issue.InvalidIdentityId).
			Wrap(err).
			BuildError()
	}
	return id, nil
}

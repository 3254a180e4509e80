// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/weakres/weakres/internal/host"
	"github.com/weakres/weakres/internal/issue"
	"github.com/weakres/weakres/internal/manifest"
	"github.com/weakres/weakres/internal/metrics"
	"github.com/weakres/weakres/internal/refgraph"
	"github.com/weakres/weakres/internal/sink"
	"github.com/weakres/weakres/pkg/conflict"
	"github.com/weakres/weakres/pkg/hook"
	"github.com/weakres/weakres/pkg/weakmatch"
)

// exitUnresolved is returned when at least one manifest request could not be loaded.
const exitUnresolved = 2

type (
	resolveOptions struct {
		manifestPath string
		scopes       int
		parallel     int
		format       string
		dedup        bool
		metricsAddr  string
	}

	// loadOutcome is the result of replaying one manifest request.
	loadOutcome struct {
		request manifest.Request
		err     error
	}
)

func newResolveCommand(app *App) *cobra.Command {
	opts := resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Replay a manifest's load requests with the weak resolver installed",
		Long: `Load the modules listed in a manifest into a simulated host, install the weak
resolver, replay every request and print the captured conflict records.

Manifests may be CUE, TOML or YAML. The exit status is 2 when a request could
not be satisfied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "manifest file (.cue, .toml, .yaml)")
	cmd.Flags().IntVar(&opts.scopes, "scopes", 1, "number of nested install scopes to open")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 1, "maximum requests replayed concurrently")
	cmd.Flags().StringVarP(&opts.format, "format", "o", string(sink.FormatText), "output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.dedup, "dedup", false, "drop records repeating an earlier (requesting, wanted, resolved) triple")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runResolve(ctx context.Context, app *App, opts resolveOptions) error {
	format, err := sink.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.scopes < 1 || opts.parallel < 1 {
		return fmt.Errorf("--scopes and --parallel must be at least 1")
	}

	cfg := app.settings(ctx)
	logger := app.slogger()

	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(opts.manifestPath).
			WithSuggestion("Check the file extension: .cue, .toml, .yaml or .yml").
			WithIssue(manifestIssue(err)).
			Wrap(err).
			BuildError()
	}
	requests, err := m.ParsedRequests()
	if err != nil {
		return err
	}

	order, err := m.ReferenceOrder()
	var cycleErr *refgraph.CycleError[string]
	switch {
	case errors.As(err, &cycleErr):
		logger.Warn("manifest has reference cycles", "modules", cycleErr.Nodes)
	case err != nil:
		return err
	default:
		logger.Debug("manifest reference order", "modules", order)
	}

	rt := host.New(host.WithLogger(logger))
	if err := m.Preload(rt); err != nil {
		return err
	}

	matcherOpts, err := cfg.MatcherOptions()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("configure matcher").
			WithIssue(issue.UnknownTieBreakRuleId).
			Wrap(err).
			BuildError()
	}

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)

	registry := hook.New(rt,
		hook.WithMatcher(weakmatch.NewMatcher(matcherOpts...)),
		hook.WithRecorder(conflict.NewRecorder(
			conflict.WithCapacity(cfg.Recorder.Capacity),
			conflict.WithRecorderLogger(logger),
		)),
		hook.WithLogger(logger),
		hook.WithMetrics(collectors),
	)
	registry.Subscribe(collectors)
	if app.verbose {
		registry.Subscribe(sink.NewLogSinkFrom(app.logger))
	}

	var stopMetrics func()
	if opts.metricsAddr != "" {
		stopMetrics, err = serveMetrics(opts.metricsAddr, reg)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("start metrics endpoint").
				WithResource(opts.metricsAddr).
				WithIssue(issue.MetricsServerFailedId).
				Wrap(err).
				BuildError()
		}
		defer stopMetrics()
	}

	outcomes, err := replay(ctx, registry, rt, requests, opts)
	if err != nil {
		return err
	}

	records := registry.Conflicts()
	if opts.dedup {
		records = conflict.Dedup(records)
	}
	out := sink.NewWriterSink(app.stdout, format)
	if err := out.WriteAll(records); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	failed := printSummary(app, outcomes)

	if opts.metricsAddr != "" {
		fmt.Fprintln(app.stderr, SubtitleStyle.Render("Serving metrics on "+opts.metricsAddr+"; interrupt to exit"))
		<-ctx.Done()
	}

	if failed > 0 {
		return &ExitError{Code: exitUnresolved, Err: fmt.Errorf("%d of %d requests could not be resolved", failed, len(outcomes))}
	}
	return nil
}

// replay opens the requested number of nested scopes and loads every request,
// at most opts.parallel at a time. Scopes are released before returning.
func replay(ctx context.Context, registry *hook.Registry, rt *host.Runtime, requests []manifest.Request, opts resolveOptions) ([]loadOutcome, error) {
	scopes := make([]*hook.Scope, 0, opts.scopes)
	defer func() {
		for _, s := range slices.Backward(scopes) {
			_ = s.Close()
		}
	}()
	for range opts.scopes {
		s, err := registry.Install()
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("install weak resolver").
				WithIssue(issue.RegistrationFailedId).
				Wrap(err).
				BuildError()
		}
		scopes = append(scopes, s)
	}

	outcomes := make([]loadOutcome, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallel)
	for i, req := range requests {
		g.Go(func() error {
			_, err := rt.Load(gctx, req.Requesting, req.Wanted)
			outcomes[i] = loadOutcome{request: req, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// printSummary writes one styled line per request to stderr and returns the failure count.
func printSummary(app *App, outcomes []loadOutcome) int {
	failed := 0
	for _, o := range outcomes {
		name := IdentityStyle.Render(o.request.Wanted.FullName())
		if o.err == nil {
			fmt.Fprintln(app.stderr, SuccessStyle.Render("✓ ")+name)
			continue
		}
		failed++
		fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+name+" "+SubtitleStyle.Render(o.err.Error()))
		if app.verbose {
			if hint := issueFor(o.err); hint != nil {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("  run 'weakres explain "+hint.Name()+"'"))
			}
		}
	}
	return failed
}

// issueFor maps a load error to its catalog entry.
func issueFor(err error) *issue.Issue {
	switch {
	case errors.Is(err, hook.ErrLoadedModulesUnavailable):
		return issue.Get(issue.LoadedModulesUnavailableId)
	case errors.Is(err, host.ErrModuleNotFound):
		return issue.Get(issue.ModuleNotFoundId)
	default:
		return nil
	}
}

func manifestIssue(err error) issue.Id {
	var entryErr *manifest.EntryError
	if errors.As(err, &entryErr) {
		return issue.InvalidIdentityId
	}
	return issue.ManifestParseFailedId
}

// serveMetrics starts a Prometheus endpoint on addr and returns its shutdown function.
func serveMetrics(addr string, g prometheus.Gatherer) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

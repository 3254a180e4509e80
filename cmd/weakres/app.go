// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/weakres/weakres/internal/config"
	"github.com/weakres/weakres/internal/issue"
)

type (
	// App wires CLI services and shared dependencies. Every command handler receives
	// the App and reads configuration and output streams through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// Set by the root command's persistent flags.
		verbose bool
		cfgFile string

		logger *log.Logger
		cfg    *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		logger: log.NewWithOptions(deps.Stderr, log.Options{Prefix: "weakres"}),
	}
}

// settings returns the configuration for this invocation, loading it on first use.
func (a *App) settings(ctx context.Context) *config.Config {
	if a.cfg == nil {
		a.cfg = a.loadConfig(ctx)
	}
	return a.cfg
}

// loadConfig loads the configuration for this invocation. A broken config file is
// reported as a warning and defaults are used, so read-only commands keep working.
func (a *App) loadConfig(ctx context.Context) *config.Config {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbose))
		return config.DefaultConfig()
	}
	return cfg
}

// configureLogging sets the CLI logger level and installs it as the slog default
// so library packages log through it.
func (a *App) configureLogging(cfg *config.Config) {
	if cfg.UI.Verbose {
		a.verbose = true
	}

	level, err := log.ParseLevel(cfg.Log.Level.String())
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger.SetLevel(level)
	slog.SetDefault(slog.New(a.logger))
}

// slogger returns a slog.Logger backed by the CLI logger.
func (a *App) slogger() *slog.Logger {
	return slog.New(a.logger)
}

// formatErrorForDisplay renders ActionableErrors with their suggestions.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

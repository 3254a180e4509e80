// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/weakres/weakres/internal/issue"
	"github.com/weakres/weakres/pkg/weakmatch"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Matcher.CaseInsensitive {
		t.Error("default matcher should be case-sensitive")
	}
	if want := []string{"highest-version", "prefer-signed"}; !reflect.DeepEqual(cfg.Matcher.TieBreak, want) {
		t.Errorf("default tie_break = %v, want %v", cfg.Matcher.TieBreak, want)
	}
	if cfg.Recorder.Capacity != 0 || cfg.Log.Level != LogLevelInfo || cfg.UI.Verbose {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("defaults should be valid, got %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-only")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	SetConfigDirOverride("/override")
	t.Cleanup(Reset)
	if dir, _ := ConfigDir(); dir != "/override" {
		t.Errorf("ConfigDir() with override = %s, want /override", dir)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	loaded, err := LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithSource() unexpected error: %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if !reflect.DeepEqual(loaded.Config, DefaultConfig()) {
		t.Errorf("Config = %+v, want defaults", loaded.Config)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
matcher: {
	case_insensitive: true
	tie_break: ["prefer-signed"]
}
recorder: capacity: 50
`)

	loaded, err := LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("LoadWithSource() unexpected error: %v", err)
	}
	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}
	cfg := loaded.Config
	if !cfg.Matcher.CaseInsensitive {
		t.Error("case_insensitive should be true")
	}
	if !reflect.DeepEqual(cfg.Matcher.TieBreak, []string{"prefer-signed"}) {
		t.Errorf("tie_break = %v", cfg.Matcher.TieBreak)
	}
	if cfg.Recorder.Capacity != 50 {
		t.Errorf("capacity = %d, want 50", cfg.Recorder.Capacity)
	}
	if cfg.Log.Level != LogLevelInfo {
		t.Errorf("unset log.level should keep default, got %q", cfg.Log.Level)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `log: level: "debug"`)
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Log.Level != LogLevelDebug {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_CustomPathNotFound(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("Load() should fail for a missing explicit file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != missing || ae.Issue != issue.ConfigLoadFailedId {
		t.Errorf("ActionableError = %+v", ae)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown rule", `matcher: tie_break: ["newest"]`},
		{"negative capacity", `recorder: capacity: -1`},
		{"bad level", `log: level: "loud"`},
		{"unknown field", `color_scheme: "dark"`},
		{"wrong type", `ui: verbose: "yes"`},
		{"syntax", `matcher: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() should reject the config")
			}
			if !strings.Contains(err.Error(), "load configuration") || !strings.Contains(err.Error(), path) {
				t.Errorf("error should name the operation and file, got: %v", err)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WEAKRES_RECORDER_CAPACITY", "7")
	t.Setenv("WEAKRES_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Recorder.Capacity != 7 || !cfg.UI.Verbose {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_EnvOverrideValidated(t *testing.T) {
	t.Setenv("WEAKRES_LOG_LEVEL", "chatty")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig and ErrInvalidLogLevel", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Matcher.CaseInsensitive = true
	cfg.Matcher.TieBreak = []string{"first-loaded"}
	cfg.Recorder.Capacity = 3
	cfg.Log.Level = LogLevelWarn

	path := writeConfig(t, t.TempDir(), GenerateCUE(cfg))
	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(GenerateCUE) unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := Save(DefaultConfig())
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("Save() path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestConfig_MatcherOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Matcher.CaseInsensitive = true
	cfg.Matcher.TieBreak = []string{"prefer-signed", "highest-version"}

	opts, err := cfg.MatcherOptions()
	if err != nil {
		t.Fatalf("MatcherOptions() unexpected error: %v", err)
	}
	m := weakmatch.NewMatcher(opts...)
	if !m.CaseInsensitive() {
		t.Error("matcher should fold case")
	}
	want := []weakmatch.Rule{weakmatch.RulePreferSigned, weakmatch.RuleHighestVersion, weakmatch.RuleFirstLoaded}
	if !reflect.DeepEqual(m.Rules(), want) {
		t.Errorf("Rules() = %v, want %v", m.Rules(), want)
	}

	cfg.Matcher.TieBreak = []string{"bogus"}
	if _, err := cfg.MatcherOptions(); !errors.Is(err, weakmatch.ErrUnknownRule) {
		t.Errorf("MatcherOptions() error = %v, want ErrUnknownRule", err)
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"negative capacity", func(c *Config) { c.Recorder.Capacity = -2 }, ErrInvalidRecorderCapacity},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLogLevel},
		{"bad rule", func(c *Config) { c.Matcher.TieBreak = []string{"x"} }, weakmatch.ErrUnknownRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if valid || len(errs) != 1 {
				t.Fatalf("IsValid() = %v, %v", valid, errs)
			}
			if !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], tt.wantErr) {
				t.Errorf("error = %v, want ErrInvalidConfig and %v", errs[0], tt.wantErr)
			}
		})
	}
}

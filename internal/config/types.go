// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weakres/weakres/pkg/weakmatch"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidRecorderCapacity is returned for a negative recorder capacity.
	ErrInvalidRecorderCapacity = errors.New("invalid recorder capacity")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidRecorderCapacityError is returned for a negative capacity.
	InvalidRecorderCapacityError struct {
		Value int
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Matcher  MatcherConfig  `json:"matcher" mapstructure:"matcher"`
		Recorder RecorderConfig `json:"recorder" mapstructure:"recorder"`
		Log      LogConfig      `json:"log" mapstructure:"log"`
		UI       UIConfig       `json:"ui" mapstructure:"ui"`
	}

	// MatcherConfig configures candidate selection.
	MatcherConfig struct {
		// CaseInsensitive compares simple names with Unicode case folding.
		CaseInsensitive bool `json:"case_insensitive" mapstructure:"case_insensitive"`
		// TieBreak lists rule names in priority order.
		TieBreak []string `json:"tie_break" mapstructure:"tie_break"`
	}

	// RecorderConfig configures the conflict recorder.
	RecorderConfig struct {
		// Capacity bounds retained records; 0 is unbounded.
		Capacity int `json:"capacity" mapstructure:"capacity"`
	}

	// LogConfig configures the CLI logger.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose prints error chains and debug logs.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	rules := weakmatch.DefaultRules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.String()
	}
	return &Config{
		Matcher:  MatcherConfig{TieBreak: names},
		Recorder: RecorderConfig{Capacity: 0},
		Log:      LogConfig{Level: LogLevelInfo},
		UI:       UIConfig{Verbose: false},
	}
}

// Rules parses TieBreak.
func (c MatcherConfig) Rules() ([]weakmatch.Rule, error) {
	rules := make([]weakmatch.Rule, 0, len(c.TieBreak))
	for _, name := range c.TieBreak {
		r, err := weakmatch.ParseRule(name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// IsValid returns whether every tie-break rule is known.
func (c MatcherConfig) IsValid() (bool, []error) {
	var errs []error
	for _, name := range c.TieBreak {
		if _, err := weakmatch.ParseRule(name); err != nil {
			errs = append(errs, err)
		}
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the capacity is non-negative.
func (c RecorderConfig) IsValid() (bool, []error) {
	if c.Capacity < 0 {
		return false, []error{&InvalidRecorderCapacityError{Value: c.Capacity}}
	}
	return true, nil
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// IsValid validates every section and wraps the collected errors in InvalidConfigError.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Matcher.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Recorder.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// MatcherOptions translates the matcher section into weakmatch options.
func (c Config) MatcherOptions() ([]weakmatch.Option, error) {
	rules, err := c.Matcher.Rules()
	if err != nil {
		return nil, fmt.Errorf("matcher.tie_break: %w", err)
	}
	return []weakmatch.Option{
		weakmatch.WithCaseInsensitive(c.Matcher.CaseInsensitive),
		weakmatch.WithTieBreak(rules...),
	}, nil
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface for InvalidRecorderCapacityError.
func (e *InvalidRecorderCapacityError) Error() string {
	return fmt.Sprintf("invalid recorder capacity %d: must be >= 0", e.Value)
}

// Unwrap returns ErrInvalidRecorderCapacity for errors.Is() compatibility.
func (e *InvalidRecorderCapacityError) Unwrap() error { return ErrInvalidRecorderCapacity }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

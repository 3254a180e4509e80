// SPDX-License-Identifier: MPL-2.0

package weakmatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weakres/weakres/pkg/modident"

	"golang.org/x/exp/slices"
)

const (
	// RuleHighestVersion prefers the candidate with the highest version.
	RuleHighestVersion Rule = iota + 1
	// RulePreferSigned prefers a candidate carrying a public-key token.
	RulePreferSigned
	// RuleFirstLoaded prefers the candidate that appears first.
	RuleFirstLoaded
)

var (
	// ErrNilWanted is returned when Match is called without a wanted identity.
	ErrNilWanted = errors.New("wanted identity is required")
	// ErrUnknownRule is the sentinel error wrapped by UnknownRuleError.
	ErrUnknownRule = errors.New("unknown tie-break rule")

	ruleNames = map[Rule]string{
		RuleHighestVersion: "highest-version",
		RulePreferSigned:   "prefer-signed",
		RuleFirstLoaded:    "first-loaded",
	}
)

type (
	// Rule is one tie-break criterion applied when several candidates weakly match.
	Rule int

	// UnknownRuleError is returned by ParseRule for an unrecognized rule name.
	UnknownRuleError struct {
		Value string
	}

	// Matcher performs weak name matching. It is immutable and safe for concurrent use.
	Matcher struct {
		fold  bool
		rules []Rule
	}

	// Option configures a Matcher.
	Option func(*Matcher)
)

// Error implements the error interface.
func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown tie-break rule %q (expected one of: highest-version, prefer-signed, first-loaded)", e.Value)
}

// Unwrap returns ErrUnknownRule so callers can use errors.Is for programmatic detection.
func (e *UnknownRuleError) Unwrap() error { return ErrUnknownRule }

// String returns the configuration name of the rule.
func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// ParseRule converts a configuration name such as "highest-version" into a Rule.
func ParseRule(s string) (Rule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range ruleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, &UnknownRuleError{Value: s}
}

// DefaultRules returns the default tie-break order.
func DefaultRules() []Rule {
	return []Rule{RuleHighestVersion, RulePreferSigned}
}

// WithCaseInsensitive makes simple-name comparison ignore case.
func WithCaseInsensitive(fold bool) Option {
	return func(m *Matcher) { m.fold = fold }
}

// WithTieBreak replaces the tie-break rules. Duplicates are dropped and
// RuleFirstLoaded is appended when absent.
func WithTieBreak(rules ...Rule) Option {
	return func(m *Matcher) {
		m.rules = m.rules[:0]
		for _, r := range rules {
			if _, known := ruleNames[r]; known && !slices.Contains(m.rules, r) {
				m.rules = append(m.rules, r)
			}
		}
	}
}

// NewMatcher creates a Matcher. Without options it is case-sensitive and uses DefaultRules.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{rules: DefaultRules()}
	for _, opt := range opts {
		opt(m)
	}
	if !slices.Contains(m.rules, RuleFirstLoaded) {
		m.rules = append(m.rules, RuleFirstLoaded)
	}
	return m
}

// CaseInsensitive reports whether the matcher folds case.
func (m *Matcher) CaseInsensitive() bool { return m.fold }

// Rules returns the effective tie-break order, ending with RuleFirstLoaded
// unless it was placed earlier.
func (m *Matcher) Rules() []Rule { return slices.Clone(m.rules) }

// MatchIndex returns the index of the candidate that satisfies wanted, or -1 when
// none weakly matches. A nil wanted identity is a usage error.
func (m *Matcher) MatchIndex(wanted *modident.Identity, candidates []modident.Identity) (int, error) {
	if wanted == nil {
		return -1, ErrNilWanted
	}

	best := -1
	for i := range candidates {
		if !candidates[i].WeakEqual(*wanted, m.fold) {
			continue
		}
		if best < 0 || m.compare(candidates, i, best) > 0 {
			best = i
		}
	}
	return best, nil
}

// Match returns a copy of the candidate that satisfies wanted, or nil when none does.
func (m *Matcher) Match(wanted *modident.Identity, candidates []modident.Identity) (*modident.Identity, error) {
	i, err := m.MatchIndex(wanted, candidates)
	if err != nil || i < 0 {
		return nil, err
	}
	match := candidates[i]
	return &match, nil
}

// compare returns a positive value when candidate i beats candidate j.
func (m *Matcher) compare(candidates []modident.Identity, i, j int) int {
	a, b := candidates[i], candidates[j]
	for _, r := range m.rules {
		var c int
		switch r {
		case RuleHighestVersion:
			c = modident.CompareVersions(a.Version(), b.Version())
		case RulePreferSigned:
			c = boolRank(a.Signed()) - boolRank(b.Signed())
		case RuleFirstLoaded:
			c = j - i
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SPDX-License-Identifier: MPL-2.0

package modident

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxVersionComponents is the number of numeric components a version may carry
// (major.minor.build.revision).
const MaxVersionComponents = 4

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

// versionRegex matches one to four dot-separated numeric components.
var versionRegex = regexp.MustCompile(`^\d+(?:\.\d+){0,3}$`)

type (
	// Version is a parsed module version. Missing trailing components compare as zero,
	// so "1.2" and "1.2.0.0" are equal, but the original component count is kept
	// for rendering.
	Version struct {
		components []int
	}

	// InvalidVersionError is returned when a version string is malformed.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Value)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ParseVersion parses a version string such as "1", "1.2" or "4.0.0.0".
func ParseVersion(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if !versionRegex.MatchString(s) {
		return nil, &InvalidVersionError{Value: s}
	}

	parts := strings.Split(s, ".")
	v := &Version{components: make([]int, 0, len(parts))}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &InvalidVersionError{Value: s}
		}
		v.components = append(v.components, n)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for tests and constants.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// NewVersion builds a version from explicit components.
func NewVersion(components ...int) (*Version, error) {
	if len(components) == 0 || len(components) > MaxVersionComponents {
		return nil, &InvalidVersionError{Value: fmt.Sprint(components)}
	}
	for _, c := range components {
		if c < 0 {
			return nil, &InvalidVersionError{Value: fmt.Sprint(components)}
		}
	}
	return &Version{components: append([]int(nil), components...)}, nil
}

// Component returns the i-th component, or 0 when the version does not carry it.
func (v *Version) Component(i int) int {
	if i < 0 || i >= len(v.components) {
		return 0
	}
	return v.components[i]
}

// Components returns a copy of the parsed components.
func (v *Version) Components() []int {
	return append([]int(nil), v.components...)
}

// String renders the version with the components it was parsed with.
func (v *Version) String() string {
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// Compare compares two versions component-wise.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v *Version) Compare(other *Version) int {
	for i := range MaxVersionComponents {
		a, b := v.Component(i), other.Component(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareVersions compares two optional versions. An absent version sorts
// below any present version; two absent versions are equal.
func CompareVersions(a, b *Version) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(b)
	}
}

// SPDX-License-Identifier: MPL-2.0

package modident

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// NeutralCulture is the culture rendered when an identity carries metadata but no culture.
	NeutralCulture = "neutral"

	nullToken = "null"
)

// ErrInvalidIdentity is the sentinel error wrapped by InvalidIdentityError.
var ErrInvalidIdentity = errors.New("invalid module identity")

type (
	// Identity is an immutable module identity. The zero value is not a valid identity;
	// use New, Parse or MustParse.
	Identity struct {
		name    string
		version *Version
		culture string
		token   []byte
	}

	// Option configures optional identity metadata in New.
	Option func(*Identity)

	// InvalidIdentityError is returned when an identity or display name is malformed.
	InvalidIdentityError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid module identity %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidIdentity so callers can use errors.Is for programmatic detection.
func (e *InvalidIdentityError) Unwrap() error { return ErrInvalidIdentity }

// WithVersion sets the identity version. A nil version leaves it absent.
func WithVersion(v *Version) Option {
	return func(id *Identity) {
		if v != nil {
			id.version = &Version{components: v.Components()}
		}
	}
}

// WithCulture sets the identity culture. "neutral" and "" both mean no culture.
func WithCulture(culture string) Option {
	return func(id *Identity) {
		id.culture = normalizeCulture(culture)
	}
}

// WithPublicKeyToken sets the identity public-key token. An empty token leaves it absent.
func WithPublicKeyToken(token []byte) Option {
	return func(id *Identity) {
		if len(token) > 0 {
			id.token = bytes.Clone(token)
		}
	}
}

// New creates an identity with the given simple name and optional metadata.
func New(name string, opts ...Option) (Identity, error) {
	name = strings.TrimSpace(name)
	if reason := nameProblem(name); reason != "" {
		return Identity{}, &InvalidIdentityError{Value: name, Reason: reason}
	}
	id := Identity{name: name}
	for _, opt := range opts {
		opt(&id)
	}
	return id, nil
}

// Parse parses a display name of the form
// "Name[, Version=a.b.c.d][, Culture=xx][, PublicKeyToken=hex|null]".
// Keys are case-insensitive. ProcessorArchitecture, Retargetable and ContentType
// are accepted and ignored.
func Parse(fullName string) (Identity, error) {
	parts := strings.Split(fullName, ",")
	name := strings.TrimSpace(parts[0])
	if reason := nameProblem(name); reason != "" {
		return Identity{}, &InvalidIdentityError{Value: fullName, Reason: reason}
	}

	id := Identity{name: name}
	seen := make(map[string]bool, len(parts)-1)
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Identity{}, &InvalidIdentityError{Value: fullName, Reason: fmt.Sprintf("attribute %q is not key=value", strings.TrimSpace(part))}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if seen[key] {
			return Identity{}, &InvalidIdentityError{Value: fullName, Reason: fmt.Sprintf("duplicate attribute %q", key)}
		}
		seen[key] = true

		switch key {
		case "version":
			v, err := ParseVersion(value)
			if err != nil {
				return Identity{}, fmt.Errorf("parse %q: %w", fullName, err)
			}
			id.version = v
		case "culture":
			id.culture = normalizeCulture(value)
		case "publickeytoken":
			if strings.EqualFold(value, nullToken) || value == "" {
				continue
			}
			token, err := hex.DecodeString(value)
			if err != nil {
				return Identity{}, &InvalidIdentityError{Value: fullName, Reason: fmt.Sprintf("public key token %q is not hex", value)}
			}
			id.token = token
		case "processorarchitecture", "retargetable", "contenttype":
		default:
			return Identity{}, &InvalidIdentityError{Value: fullName, Reason: fmt.Sprintf("unknown attribute %q", key)}
		}
	}
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(fullName string) Identity {
	id, err := Parse(fullName)
	if err != nil {
		panic(err)
	}
	return id
}

// Name returns the simple name.
func (id Identity) Name() string { return id.name }

// Version returns a copy of the version, or nil when absent.
func (id Identity) Version() *Version {
	if id.version == nil {
		return nil
	}
	return &Version{components: id.version.Components()}
}

// Culture returns the culture, or "" for the neutral culture.
func (id Identity) Culture() string { return id.culture }

// PublicKeyToken returns a copy of the token, or nil when the identity is unsigned.
func (id Identity) PublicKeyToken() []byte { return bytes.Clone(id.token) }

// Signed reports whether the identity carries a public-key token.
func (id Identity) Signed() bool { return len(id.token) > 0 }

// IsZero reports whether id is the zero Identity.
func (id Identity) IsZero() bool { return id.name == "" }

// FullName renders the display name. A bare simple name renders as itself; once
// any metadata is present, culture and token are always rendered ("neutral"/"null"
// when absent).
func (id Identity) FullName() string {
	if id.version == nil && id.culture == "" && len(id.token) == 0 {
		return id.name
	}

	var sb strings.Builder
	sb.WriteString(id.name)
	if id.version != nil {
		sb.WriteString(", Version=")
		sb.WriteString(id.version.String())
	}
	sb.WriteString(", Culture=")
	if id.culture == "" {
		sb.WriteString(NeutralCulture)
	} else {
		sb.WriteString(id.culture)
	}
	sb.WriteString(", PublicKeyToken=")
	if len(id.token) == 0 {
		sb.WriteString(nullToken)
	} else {
		sb.WriteString(hex.EncodeToString(id.token))
	}
	return sb.String()
}

// String returns FullName.
func (id Identity) String() string { return id.FullName() }

// StrongEqual reports whether every identity field matches. Names compare
// exactly, cultures case-insensitively, versions component-wise.
func (id Identity) StrongEqual(other Identity) bool {
	return id.name == other.name &&
		CompareVersions(id.version, other.version) == 0 &&
		strings.EqualFold(id.culture, other.culture) &&
		bytes.Equal(id.token, other.token)
}

// WeakEqual reports whether the simple names match. When fold is true the
// comparison ignores case.
func (id Identity) WeakEqual(other Identity, fold bool) bool {
	if fold {
		return strings.EqualFold(id.name, other.name)
	}
	return id.name == other.name
}

// MarshalText implements encoding.TextMarshaler using FullName.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.FullName()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// nameProblem returns why name is not a valid simple name, or "" when it is.
func nameProblem(name string) string {
	switch {
	case name == "":
		return "simple name is empty"
	case strings.ContainsAny(name, "=,"):
		return "simple name contains '=' or ','"
	}
	return ""
}

func normalizeCulture(culture string) string {
	culture = strings.TrimSpace(culture)
	if strings.EqualFold(culture, NeutralCulture) {
		return ""
	}
	return culture
}

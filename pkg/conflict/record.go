// SPDX-License-Identifier: MPL-2.0

package conflict

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/weakres/weakres/pkg/modident"
)

const nullResolved = "(null)"

var (
	// ErrInvalidRecord is the sentinel error wrapped by InvalidRecordError.
	ErrInvalidRecord = errors.New("invalid conflict record")
	// ErrNonUTCTime is returned when a record time is not in UTC.
	ErrNonUTCTime = errors.New("conflict time must be UTC")
	// ErrMissingWanted is returned when a record has no wanted identity.
	ErrMissingWanted = errors.New("wanted identity is required")
	// ErrNegativeInstallCount is returned when a record install count is below zero.
	ErrNegativeInstallCount = errors.New("install count must not be negative")
)

type (
	// Record is one captured resolution attempt. It has no exported fields and no
	// mutating methods; identity accessors return copies.
	Record struct {
		at           time.Time
		requesting   *modident.Identity
		wanted       modident.Identity
		resolved     *modident.Identity
		installCount int
	}

	// InvalidRecordError is returned by NewRecord when an argument violates a record
	// invariant. It wraps ErrInvalidRecord and the specific cause.
	InvalidRecordError struct {
		Cause error
	}

	// recordView is the serialized form used by MarshalJSON and MarshalYAML.
	recordView struct {
		Time         time.Time `json:"time" yaml:"time"`
		Requesting   string    `json:"requesting,omitempty" yaml:"requesting,omitempty"`
		Wanted       string    `json:"wanted" yaml:"wanted"`
		Resolved     string    `json:"resolved,omitempty" yaml:"resolved,omitempty"`
		InstallCount int       `json:"install_count" yaml:"install_count"`
		Success      bool      `json:"success" yaml:"success"`
	}
)

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid conflict record: %v", e.Cause)
}

// Unwrap returns both ErrInvalidRecord and the specific cause.
func (e *InvalidRecordError) Unwrap() []error { return []error{ErrInvalidRecord, e.Cause} }

// NewRecord creates a record. t must be in UTC and wanted must be non-nil; both are
// programming errors when violated and are reported, never corrected.
func NewRecord(t time.Time, requesting, wanted, resolved *modident.Identity, installCount int) (*Record, error) {
	if t.Location() != time.UTC {
		return nil, &InvalidRecordError{Cause: ErrNonUTCTime}
	}
	if wanted == nil {
		return nil, &InvalidRecordError{Cause: ErrMissingWanted}
	}
	if installCount < 0 {
		return nil, &InvalidRecordError{Cause: ErrNegativeInstallCount}
	}
	return &Record{
		at:           t,
		requesting:   cloneIdentity(requesting),
		wanted:       *wanted,
		resolved:     cloneIdentity(resolved),
		installCount: installCount,
	}, nil
}

// Time returns when the conflict was captured, in UTC.
func (r *Record) Time() time.Time { return r.at }

// Requesting returns the identity of the module that asked, or nil when the runtime did not say.
func (r *Record) Requesting() *modident.Identity { return cloneIdentity(r.requesting) }

// Wanted returns the requested identity. It is never nil.
func (r *Record) Wanted() *modident.Identity { return cloneIdentity(&r.wanted) }

// Resolved returns the identity that satisfied the request, or nil when resolution failed.
func (r *Record) Resolved() *modident.Identity { return cloneIdentity(r.resolved) }

// InstallCount returns the number of active install scopes when the conflict was captured.
// Under concurrent Install/Uninstall the value is only meaningful for that moment.
func (r *Record) InstallCount() int { return r.installCount }

// Succeeded reports whether the request was resolved.
func (r *Record) Succeeded() bool { return r.resolved != nil }

// Exact reports whether the resolved identity strongly equals the wanted one.
func (r *Record) Exact() bool {
	return r.resolved != nil && r.resolved.StrongEqual(r.wanted)
}

// IsConflict reports whether wanted and resolved differ, including failed resolutions.
func (r *Record) IsConflict() bool { return !r.Exact() }

// DedupKey returns a heuristic key for "report once" filtering: the install count
// plus the requesting, wanted and resolved full names.
func (r *Record) DedupKey() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(r.installCount))
	sb.WriteByte('|')
	if r.requesting != nil {
		sb.WriteString(r.requesting.FullName())
	}
	sb.WriteByte('|')
	sb.WriteString(r.wanted.FullName())
	sb.WriteByte('|')
	if r.resolved != nil {
		sb.WriteString(r.resolved.FullName())
	}
	return sb.String()
}

// String renders the record on one line:
//
//	Success: '<wanted>' => '<resolved>' (requested by <requesting>)
//	Failed: '<wanted>' => '(null)' (no requesting assembly)
//
// Log scrapers depend on this exact format.
func (r *Record) String() string {
	outcome := "Failed"
	resolved := nullResolved
	if r.resolved != nil {
		outcome = "Success"
		resolved = r.resolved.FullName()
	}
	requesting := "no requesting assembly"
	if r.requesting != nil {
		requesting = "requested by " + r.requesting.FullName()
	}
	return fmt.Sprintf("%s: '%s' => '%s' (%s)", outcome, r.wanted.FullName(), resolved, requesting)
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

// MarshalYAML implements yaml.Marshaler.
func (r *Record) MarshalYAML() (any, error) {
	return r.view(), nil
}

func (r *Record) view() recordView {
	v := recordView{
		Time:         r.at,
		Wanted:       r.wanted.FullName(),
		InstallCount: r.installCount,
		Success:      r.resolved != nil,
	}
	if r.requesting != nil {
		v.Requesting = r.requesting.FullName()
	}
	if r.resolved != nil {
		v.Resolved = r.resolved.FullName()
	}
	return v
}

// Dedup returns the records whose DedupKey has not been seen earlier in the slice,
// preserving order.
func Dedup(records []*Record) []*Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		key := r.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func cloneIdentity(id *modident.Identity) *modident.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistrationFailed is the sentinel error wrapped by RegistrationError.
	ErrRegistrationFailed = errors.New("failed to register resolve handler")
	// ErrLoadedModulesUnavailable is returned by the handler when the runtime cannot
	// enumerate loaded modules.
	ErrLoadedModulesUnavailable = errors.New("loaded modules unavailable")
	// ErrInvalidRequest is returned by the handler for a request without a wanted identity.
	ErrInvalidRequest = errors.New("invalid resolution request")
	// ErrNoDefaultRegistry is returned by the package-level Install when SetDefault was never called.
	ErrNoDefaultRegistry = errors.New("no default registry configured")
)

// RegistrationError is returned by Install when the runtime rejects the handler.
// The install count is left unchanged.
type RegistrationError struct {
	Cause error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register resolve handler: %v", e.Cause)
}

// Unwrap returns both ErrRegistrationFailed and the runtime's error.
func (e *RegistrationError) Unwrap() []error { return []error{ErrRegistrationFailed, e.Cause} }

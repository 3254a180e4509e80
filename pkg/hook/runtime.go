// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"context"
	"time"

	"github.com/weakres/weakres/pkg/modident"
)

const (
	// OutcomeExact is a resolution whose module strongly matched the request.
	OutcomeExact Outcome = "exact"
	// OutcomeWeak is a resolution satisfied by a weakly matching module.
	OutcomeWeak Outcome = "weak"
	// OutcomeFailed is a resolution with no matching module.
	OutcomeFailed Outcome = "failed"
	// OutcomeError is a resolution aborted because loaded modules could not be enumerated.
	OutcomeError Outcome = "error"
)

type (
	// Module is a runtime-owned handle for a loaded module. The registry only needs its identity.
	Module interface {
		Identity() modident.Identity
	}

	// Request is one resolution attempt routed by the runtime.
	Request struct {
		// Requesting is the module that triggered the load, or nil when the runtime does not know.
		Requesting *modident.Identity
		// Wanted is the identity being resolved.
		Wanted modident.Identity
	}

	// Handler answers resolution requests. Resolve returns nil, nil when it cannot
	// resolve the request, letting the runtime fall back to its own behaviour.
	Handler interface {
		Resolve(ctx context.Context, req Request) (Module, error)
	}

	// Runtime is the host capability the registry hooks into.
	Runtime interface {
		// AddResolveHandler registers h for resolution requests.
		AddResolveHandler(h Handler) error
		// RemoveResolveHandler unregisters h. Removing an unknown handler is a no-op.
		RemoveResolveHandler(h Handler)
		// LoadedModules returns the modules currently loaded, in load order.
		LoadedModules(ctx context.Context) ([]Module, error)
	}

	// Clock supplies conflict timestamps.
	Clock interface {
		Now() time.Time
	}

	// Outcome classifies a handled resolution for metrics.
	Outcome string

	// Metrics receives registry observations.
	Metrics interface {
		ObserveResolution(outcome Outcome)
		SetInstallCount(n int)
		ObserveRegistrationFailure()
	}

	systemClock struct{}

	nopMetrics struct{}
)

// Now returns the current system time.
func (systemClock) Now() time.Time { return time.Now() }

func (nopMetrics) ObserveResolution(Outcome) {}
func (nopMetrics) SetInstallCount(int) {}
func (nopMetrics) ObserveRegistrationFailure() {}

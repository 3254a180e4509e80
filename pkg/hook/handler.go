// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"context"
	"fmt"

	"github.com/weakres/weakres/pkg/conflict"
	"github.com/weakres/weakres/pkg/modident"
)

// resolveHandler is the Handler a Registry registers with its runtime. It may be
// invoked concurrently and re-entrantly; it holds no registry lock while running.
type resolveHandler struct {
	registry *Registry
}

// Resolve enumerates the loaded modules, weakly matches req.Wanted against them,
// records the attempt and returns the matched module or nil.
func (h *resolveHandler) Resolve(ctx context.Context, req Request) (Module, error) {
	r := h.registry
	if req.Wanted.IsZero() {
		return nil, fmt.Errorf("%w: wanted identity is required", ErrInvalidRequest)
	}

	loaded, err := r.rt.LoadedModules(ctx)
	if err != nil {
		r.metrics.ObserveResolution(OutcomeError)
		r.logger.Warn("cannot enumerate loaded modules", "wanted", req.Wanted.FullName(), "error", err)
		return nil, fmt.Errorf("resolve %q: %w: %w", req.Wanted.FullName(), ErrLoadedModulesUnavailable, err)
	}

	candidates := make([]modident.Identity, len(loaded))
	for i, m := range loaded {
		candidates[i] = m.Identity()
	}

	idx, err := r.matcher.MatchIndex(&req.Wanted, candidates)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", req.Wanted.FullName(), err)
	}

	var (
		match    Module
		resolved *modident.Identity
	)
	if idx >= 0 {
		match = loaded[idx]
		resolved = &candidates[idx]
	}

	rec, err := conflict.NewRecord(r.clock.Now().UTC(), req.Requesting, &req.Wanted, resolved, r.CurrentInstallCount())
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", req.Wanted.FullName(), err)
	}
	r.recorder.Publish(rec)

	switch {
	case rec.Exact():
		r.metrics.ObserveResolution(OutcomeExact)
	case rec.Succeeded():
		r.metrics.ObserveResolution(OutcomeWeak)
	default:
		r.metrics.ObserveResolution(OutcomeFailed)
	}
	r.logger.Debug("module resolution", "conflict", rec.String(), "install_count", rec.InstallCount())

	return match, nil
}

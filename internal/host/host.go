// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/weakres/weakres/pkg/hook"
	"github.com/weakres/weakres/pkg/modident"
)

var (
	// ErrModuleNotFound is the sentinel error wrapped by LoadError.
	ErrModuleNotFound = errors.New("module not found")
	// ErrForeignModule is returned when a handler answers with a module this runtime did not load.
	ErrForeignModule = errors.New("handler returned a module not loaded by this runtime")
	// ErrDuplicateHandler is returned when the same handler is registered twice.
	ErrDuplicateHandler = errors.New("resolve handler already registered")
)

type (
	// Module is a loaded module and the references it declares.
	Module struct {
		id         modident.Identity
		references []modident.Identity
	}

	// LoadError reports a module that neither the loader nor any handler could provide.
	LoadError struct {
		Requesting *modident.Identity
		Wanted     modident.Identity
	}

	// Runtime is an in-process module loader implementing hook.Runtime.
	Runtime struct {
		logger *slog.Logger

		mu       sync.RWMutex
		modules  []*Module
		handlers []hook.Handler
		// bound marks modules whose references were already loaded.
		bound map[*Module]bool
		// enumErr, when set, makes LoadedModules fail.
		enumErr error
	}

	// Option configures a Runtime.
	Option func(*Runtime)
)

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Requesting != nil {
		return fmt.Sprintf("could not load %q (requested by %q)", e.Wanted.FullName(), e.Requesting.FullName())
	}
	return fmt.Sprintf("could not load %q", e.Wanted.FullName())
}

// Unwrap returns ErrModuleNotFound so callers can use errors.Is for programmatic detection.
func (e *LoadError) Unwrap() error { return ErrModuleNotFound }

// Identity implements hook.Module.
func (m *Module) Identity() modident.Identity { return m.id }

// References returns the identities this module depends on.
func (m *Module) References() []modident.Identity { return slices.Clone(m.references) }

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// New creates an empty runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: slog.Default(),
		bound:  make(map[*Module]bool),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Preload adds a module to the loaded table without resolving its references.
// Modules are enumerated in Preload order.
func (rt *Runtime) Preload(id modident.Identity, references ...modident.Identity) *Module {
	m := &Module{id: id, references: slices.Clone(references)}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.modules = append(rt.modules, m)
	return m
}

// Unload removes every loaded module strongly equal to id and reports how many were removed.
func (rt *Runtime) Unload(id modident.Identity) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	before := len(rt.modules)
	rt.modules = slices.DeleteFunc(rt.modules, func(m *Module) bool {
		if m.id.StrongEqual(id) {
			delete(rt.bound, m)
			return true
		}
		return false
	})
	return before - len(rt.modules)
}

// SetEnumerationError makes LoadedModules fail with err until cleared with nil.
func (rt *Runtime) SetEnumerationError(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.enumErr = err
}

// AddResolveHandler implements hook.Runtime.
func (rt *Runtime) AddResolveHandler(h hook.Handler) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if slices.Contains(rt.handlers, h) {
		return ErrDuplicateHandler
	}
	rt.handlers = append(rt.handlers, h)
	return nil
}

// RemoveResolveHandler implements hook.Runtime.
func (rt *Runtime) RemoveResolveHandler(h hook.Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if i := slices.Index(rt.handlers, h); i >= 0 {
		rt.handlers = slices.Delete(rt.handlers, i, i+1)
	}
}

// HandlerCount returns the number of registered resolve handlers.
func (rt *Runtime) HandlerCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.handlers)
}

// LoadedModules implements hook.Runtime.
func (rt *Runtime) LoadedModules(ctx context.Context) ([]hook.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.enumErr != nil {
		return nil, rt.enumErr
	}
	out := make([]hook.Module, len(rt.modules))
	for i, m := range rt.modules {
		out[i] = m
	}
	return out, nil
}

// Load binds wanted on behalf of requesting (which may be nil) and then binds the
// resolved module's references.
func (rt *Runtime) Load(ctx context.Context, requesting *modident.Identity, wanted modident.Identity) (*Module, error) {
	m, err := rt.bind(ctx, requesting, wanted)
	if err != nil {
		return nil, err
	}
	if err := rt.loadReferences(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// bind finds an exactly loaded module or asks the handlers for one.
func (rt *Runtime) bind(ctx context.Context, requesting *modident.Identity, wanted modident.Identity) (*Module, error) {
	rt.mu.RLock()
	for _, m := range rt.modules {
		if m.id.StrongEqual(wanted) {
			rt.mu.RUnlock()
			return m, nil
		}
	}
	handlers := slices.Clone(rt.handlers)
	rt.mu.RUnlock()

	req := hook.Request{Requesting: requesting, Wanted: wanted}
	for _, h := range handlers {
		resolved, err := h.Resolve(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", wanted.FullName(), err)
		}
		if resolved == nil {
			continue
		}
		m, ok := resolved.(*Module)
		if !ok || !rt.owns(m) {
			return nil, fmt.Errorf("load %q: %w", wanted.FullName(), ErrForeignModule)
		}
		rt.logger.Debug("resolve event satisfied", "wanted", wanted.FullName(), "resolved", m.id.FullName())
		return m, nil
	}
	return nil, &LoadError{Requesting: requesting, Wanted: wanted}
}

// loadReferences binds each reference of m once. Cycles terminate because m is
// marked before recursing.
func (rt *Runtime) loadReferences(ctx context.Context, m *Module) error {
	rt.mu.Lock()
	if rt.bound[m] {
		rt.mu.Unlock()
		return nil
	}
	rt.bound[m] = true
	rt.mu.Unlock()

	requesting := m.id
	for _, ref := range m.references {
		if _, err := rt.Load(ctx, &requesting, ref); err != nil {
			rt.mu.Lock()
			delete(rt.bound, m)
			rt.mu.Unlock()
			return err
		}
	}
	return nil
}

func (rt *Runtime) owns(m *Module) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return slices.Contains(rt.modules, m)
}

// SPDX-License-Identifier: MPL-2.0

package hook

import "sync/atomic"

var defaultRegistry atomic.Pointer[Registry]

// Default returns the process-wide registry, or nil when none was set.
func Default() *Registry {
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry and returns the previous one.
// Scopes opened on the previous registry stay bound to it.
func SetDefault(r *Registry) *Registry {
	return defaultRegistry.Swap(r)
}

// Install opens a scope on the process-wide registry.
func Install() (*Scope, error) {
	r := Default()
	if r == nil {
		return nil, ErrNoDefaultRegistry
	}
	return r.Install()
}

// Uninstall releases s on the registry it was opened on.
func Uninstall(s *Scope) {
	if s != nil {
		s.registry.Uninstall(s)
	}
}

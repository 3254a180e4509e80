// SPDX-License-Identifier: MPL-2.0

// Package hook installs a weak-name resolution handler into a host runtime.
//
// A [Registry] owns one [Handler] and registers it with the [Runtime] when the first
// install scope opens, and removes it when the last one closes. Scopes may nest or
// overlap freely across goroutines:
//
//	scope, err := registry.Install()
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
// While registered, every resolution request the runtime routes to the handler is
// matched against the currently loaded modules (see the weakmatch package), captured
// as a conflict.Record, published to the registry's recorder, and answered with the
// matched module or nil.
//
// The registry never retains module handles. Loaded modules are enumerated per request
// and dropped afterwards; records only hold identity values, so the core never keeps a
// module alive on its own.
package hook

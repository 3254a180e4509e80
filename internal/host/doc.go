// SPDX-License-Identifier: MPL-2.0

// Package host simulates a managed runtime's module loader.
//
// A Runtime keeps a table of loaded modules in load order. Load first looks for a
// loaded module that strongly equals the request, the way real loaders bind exact
// identities. Only when that fails does it raise its resolve event, calling each
// registered hook.Handler in registration order until one returns a module. A
// resolved module's references are then loaded recursively, which re-enters the
// handlers for every reference that is not bound exactly.
package host

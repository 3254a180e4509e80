// SPDX-License-Identifier: MPL-2.0

// Package manifest loads the description of a simulated host: which modules are loaded
// (with the references each one declares) and which load requests to replay against it.
// Manifests may be written in CUE, TOML or YAML; the format follows the file extension.
package manifest

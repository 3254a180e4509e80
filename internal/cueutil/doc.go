// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE parsing flow shared by the config and manifest packages:
// compile the embedded schema, compile the user file and unify it with a schema
// definition, then validate and decode into a Go value. Errors carry the file name and
// a JSON-path style location such as "modules[2].name".
package cueutil

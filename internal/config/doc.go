// SPDX-License-Identifier: MPL-2.0

// Package config loads weakres settings with Viper, using CUE as the file format.
//
// The file is config.cue in the platform config directory (or the working directory),
// validated against the embedded config_schema.cue. WEAKRES_* environment variables
// override file values, e.g. WEAKRES_MATCHER_CASE_INSENSITIVE=true.
package config

// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: a controllable clock
// for deterministic conflict timestamps, a discarding logger, and cleanup helpers
// that fail the test instead of ignoring errors.
package testutil

// SPDX-License-Identifier: MPL-2.0

// Package conflict captures module resolution attempts and hands them to observers.
//
// A [Record] describes one attempt: when it happened (always UTC), which module asked,
// which identity was wanted, what was resolved (nil on failure) and how many install
// scopes were active. Records are immutable.
//
// A [Recorder] keeps records in capture order for pull access ([Recorder.All]) and pushes
// each one to subscribers ([Recorder.Subscribe]). A failing or panicking subscriber never
// prevents delivery to the others and never fails the resolution that produced the record.
//
// No deduplication happens by default: resolving the same request twice yields two records.
// [Dedup] offers a heuristic keyed on InstallCount and the identities. InstallCount alone is
// unreliable when install scopes overlap across goroutines.
package conflict

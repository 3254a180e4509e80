// SPDX-License-Identifier: MPL-2.0

// Package weakmatch selects which already-loaded module satisfies a request when
// only the simple names have to agree.
//
// Candidates whose simple name differs from the wanted identity are discarded.
// When several remain, the tie-break rules decide, in order:
//   - [RuleHighestVersion]: the highest version wins; a missing version sorts lowest
//   - [RulePreferSigned]: a candidate with a public-key token beats one without
//   - [RuleFirstLoaded]: the earliest candidate in the supplied order wins
//
// RuleFirstLoaded is always applied last, so a fixed candidate order always yields
// the same result. Callers should pass candidates in module-load order.
package weakmatch

// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the resolution hot paths, usable for
// PGO profile generation:
//   - full-name parsing
//   - candidate matching over many loaded modules
//   - a weak resolution through the host runtime with the resolver installed
//   - conflict publication with subscribers attached
//   - CUE manifest decoding
//
// To write a profile:
//
//	go test ./internal/benchmark -bench . -cpuprofile default.pgo
package benchmark

// SPDX-License-Identifier: MPL-2.0

// Package sink provides conflict.Subscriber implementations that persist records
// outside the process: a styled log line per record, or a structured stream in
// text, JSON or YAML.
package sink

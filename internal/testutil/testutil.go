// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"log/slog"
	"testing"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MustClose closes c and fails the test if Close returns an error.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Errorf("failed to close: %v", err)
	}
}

// DeferClose registers c.Close as a test cleanup that reports errors.
func DeferClose(t testing.TB, c io.Closer) {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close during cleanup: %v", err)
		}
	})
}

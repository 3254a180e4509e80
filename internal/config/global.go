// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces ConfigDir's platform lookup when set.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir. Tests use it because
// os.UserHomeDir does not honor HOME on every platform.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SPDX-License-Identifier: MPL-2.0

// Command weakres replays module load requests against a simulated host runtime with
// the weak name resolver installed, and inspects identities, matches and configuration.
package main

func main() {
	Execute()
}

// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package version

// version is the current version of the build. This is populated by the Go linker.
var version string

// Parse returns the version string of the build, or "dev" for builds made
// without the release tooling.
func Parse() string {
	if version == "" {
		return "dev"
	}
	return version
}

// Package version exposes build metadata for the CLI shell.
package version

import (
	"runtime"
	"runtime/debug"
)

var version = "dev"

// Version returns the semantic version string, set at build time via
// -ldflags "-X .../internal/version.version=v1.2.3".
func Version() string {
	return version
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

// Revision returns the VCS revision embedded in the build info, if any.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// Package version exposes build metadata injected at link time.
package version

// Version is overridden via -ldflags at release builds.
var Version = "dev"

// GetInfo returns the human-readable version string.
func GetInfo() string {
	return Version
}

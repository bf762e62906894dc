// Package version carries build identification, overridden via -ldflags at
// release time.
package version

var (
	// Version is the release version of the pipeline binaries.
	Version = "dev"
	// GitSHA is the git commit the binaries were built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

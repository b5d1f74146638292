// Package build holds version information set at link time.
package build

// Set with -ldflags "-X github.com/goliatone/go-modelstore/internal/build.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

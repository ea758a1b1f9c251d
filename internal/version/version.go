package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build identity for logs and the status endpoint.
func String() string {
	return fmt.Sprintf("motus %s (%s, built %s)", Version, GitSHA, BuildTime)
}

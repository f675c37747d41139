// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

// Populated by -ldflags at build time; defaults used for local dev.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return Version + " (" + GitBranch + "@" + GitCommit + ", built " + BuildDate + ")"
}

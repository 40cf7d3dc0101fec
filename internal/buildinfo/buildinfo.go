// Package buildinfo holds release metadata set at link time, e.g.
//
//	go build -ldflags "-X github.com/aidanlsb/cmisq/internal/buildinfo.Version=v0.3.0"
package buildinfo

// Empty for local builds; the version command then falls back to the
// module's build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

package app

import "fmt"

// Build information, set with
// -ldflags "-X github.com/hyperifyio/gosummarize/internal/app.Version=v1.2.3".
var (
	Version = "0.0.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// VersionString is what `gosummarize version` prints.
func VersionString() string {
	return fmt.Sprintf("gosummarize %s (commit %s, built %s)", Version, Commit, Date)
}

// Package version holds apismoke build information, set via -ldflags:
//
//	-X github.com/hazz-dev/apismoke/internal/version.Version=v1.2.0
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

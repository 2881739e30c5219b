package version

import "fmt"

// Set at build time with -ldflags "-X github.com/veesix-networks/unicastdhcp/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return fmt.Sprintf("unicastdhcp %s (%s) built on %s", Version, Commit, Date)
}

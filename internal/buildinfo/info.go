// Package buildinfo carries version metadata injected at link time.
package buildinfo

// Set via -ldflags "-X github.com/saldo-app/saldo/internal/buildinfo.Version=..."
// and friends by the release build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

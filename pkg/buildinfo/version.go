// Package buildinfo carries the version stamped into gauzecut binaries.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/gauzecut/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/gauzecut/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/gauzecut/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/gauzecut
//
// Development builds report "dev". The HTTP API returns Version from
// /healthz and the CLI prints all three with --version.
package buildinfo

import "fmt"

var (
	// Version is the release tag, "dev" when unset.
	Version = "dev"

	// Commit is the abbreviated git commit.
	Commit = "none"

	// Date is the UTC build time in RFC 3339 form.
	Date = "unknown"
)

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}

// Package version exposes build-time version metadata.
package version

// Set via -ldflags at build time.
var (
	// Version is the release version of the binary.
	Version = "dev"

	// Commit is the Git commit the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

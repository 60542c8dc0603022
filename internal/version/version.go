// Package version exposes build-time version metadata.
// Values are injected via -ldflags at release build time.
package version

// Set via: go build -ldflags "-X .../internal/version.Version=0.3.0 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Map returns version metadata for health endpoints.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}

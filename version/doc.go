// Package version provides version information and build metadata for linkcache.
//
// Values come from, in order:
//   - Compile-time variables (Version, Commit, Date) set via -ldflags
//   - Runtime build info from debug.ReadBuildInfo()
//   - Fallback defaults for development builds
//
// Release builds set them with:
//
//	-ldflags "-X github.com/dendrascience/linkcache/version.Version=v1.0.0 -X github.com/dendrascience/linkcache/version.Commit=abc123 -X github.com/dendrascience/linkcache/version.Date=2023-01-01T00:00:00Z"
package version

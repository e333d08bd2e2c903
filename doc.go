// Package main provides the linkcache command-line interface.
//
// linkcache rewrites a chat-platform JSON export so that media URLs embedded
// as string values are replaced by references to a locally cached,
// content-addressed copy. Every URL is downloaded at most once.
//
// The main binary supports multiple subcommands:
//   - rewrite: Download linked media and rewrite the export
//   - scan: List the URLs a rewrite would download
//   - resolve: Resolve individual URLs through the cache
//   - verify: Check the cache directory
//   - count: Count files in directory trees
//   - seed: Generate a synthetic export
package main

// Package cmd provides the command-line interface implementation for linkcache.
//
// This package contains all the subcommand implementations for the linkcache
// CLI tool. It uses the Cobra library for command structure and Fang for
// styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and entry point
//   - rewrite: Download linked media and rewrite the export
//   - scan: Dry run listing the URLs a rewrite would download
//   - resolve: Resolve individual URLs through the cache
//   - verify: Cache layout and interrupted download checks
//   - count: File counting utilities
//   - seed: Synthetic export generation
//
// Each command is implemented as a separate file with its own constructor
// function that returns a *cobra.Command. Commands that touch the export or
// the cache load their settings through the config package, with flags
// overriding file and environment values.
package cmd

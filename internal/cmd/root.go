package cmd

import (
	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root cobra command for the linkcache CLI.
// It sets up all subcommands, command groups, and basic configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linkcache",
		Short: "linkcache - Cache the media linked from a chat export and rewrite the links",
		Long: `linkcache rewrites a chat-platform JSON export so that media URLs embedded
as string values point at a local, content-addressed copy of the same content.

Each URL is downloaded at most once into the cache directory, under a name
derived from the SHA-1 of the URL without query or fragment. The rewritten
value keeps the original address as a percent-encoded fragment.

Use subcommands to perform different operations:
  - rewrite: Download linked media and write rewritten copies of the export
  - scan: List the URLs a rewrite would download, without network access
  - resolve: Resolve individual URLs through the cache
  - verify: Check the cache directory layout and find interrupted downloads
  - count: Count files in directory trees
  - seed: Generate a synthetic export for testing`,
		Version: version.GetFullVersion(),
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default "+config.GetDefaultConfigPath()+")")

	groupArchive := "archive"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupArchive,
		Title: "Archive Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	rewriteCmd := NewRewriteCmd()
	scanCmd := NewScanCmd()
	resolveCmd := NewResolveCmd()
	verifyCmd := NewVerifyCmd()
	countCmd := NewCountCmd()
	seedCmd := NewSeedCmd()

	rewriteCmd.GroupID = groupArchive
	scanCmd.GroupID = groupArchive
	resolveCmd.GroupID = groupArchive
	verifyCmd.GroupID = groupUtilities
	countCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(seedCmd)

	return rootCmd
}

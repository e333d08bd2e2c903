package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/util"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewCountCmd creates and returns the count subcommand for the linkcache CLI.
// It provides file counting functionality for directory trees.
func NewCountCmd() *cobra.Command {
	var (
		path         string
		extension    string
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "count [PATH]",
		Short: "Count files in a directory tree",
		Long: `Count the regular files in a directory tree, and how many of them a
rewrite would select by extension.

Directories, symlinks and special files are not counted. Unreadable entries
are reported and counting continues with their siblings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				path = args[0]
			}
			return runCount(cmd.OutOrStdout(), path, extension, showProgress)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "./", "Path to count files in")
	cmd.Flags().StringVar(&extension, "extension", config.DefaultExtension, "Extension of input files (case-sensitive)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show progress every 10,000 files")

	return cmd
}

func runCount(out io.Writer, path, extension string, showProgress bool) error {
	var progress func(util.FileCount)
	if showProgress {
		progress = func(fc util.FileCount) {
			if fc.Total%10000 == 0 {
				fmt.Fprintf(out, "Progress: %s files counted\n", humanize.Comma(int64(fc.Total)))
			}
		}
	}

	fc, err := util.CountFiles(path, func(p string) bool {
		return filepath.Ext(p) == extension
	}, progress)
	if err != nil {
		return fmt.Errorf("error counting files: %w", err)
	}

	for _, err := range fc.Errors {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	fmt.Fprintf(out, "Total files: %s\n", humanize.Comma(int64(fc.Total)))
	fmt.Fprintf(out, "Matching %s files: %s\n", extension, humanize.Comma(int64(fc.Matched)))
	if len(fc.Errors) > 0 {
		return fmt.Errorf("%d entries could not be read", len(fc.Errors))
	}
	return nil
}

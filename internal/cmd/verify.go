package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/util"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates and returns the verify subcommand. It checks the
// cache directory layout and finds files left behind by interrupted
// downloads.
func NewVerifyCmd() *cobra.Command {
	var (
		cacheDir string
		verbose  bool
		repair   bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the cache directory for misplaced and empty files",
		Long: `Verify the cache directory.

Every file must be named <3 hex>/<37 hex>[.ext] relative to the cache root,
with an extension of at most four characters. Empty files usually come from
a download that was interrupted before the first byte arrived; --repair
removes them so the next rewrite downloads them again.

Enumeration errors are reported and verification continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := verifyCache(cmd.OutOrStdout(), cacheDir, verbose, repair)
			if err != nil {
				return err
			}
			return report.err()
		},
	}

	cmd.Flags().StringVarP(&cacheDir, "path", "p", config.DefaultCacheDir, "Path to the cache directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVarP(&repair, "repair", "r", false, "Remove empty cache files")

	return cmd
}

// verifyReport summarizes a verification pass.
type verifyReport struct {
	files    int
	bytes    int64
	invalid  []string
	empty    []string
	removed  int
	walkErrs []error
}

// err reports unresolved problems. Removed empty files no longer count.
func (r verifyReport) err() error {
	problems := len(r.invalid) + len(r.walkErrs) + len(r.empty) - r.removed
	if problems > 0 {
		return fmt.Errorf("cache verification found %d problems", problems)
	}
	return nil
}

func verifyCache(out io.Writer, root string, verbose, repair bool) (verifyReport, error) {
	var report verifyReport

	w, err := util.NewWalker(root)
	if err != nil {
		return report, err
	}
	for path, err := range w.All() {
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			report.walkErrs = append(report.walkErrs, err)
			continue
		}
		report.files++

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return report, fmt.Errorf("%w: %w", util.ErrFileSystem, err)
		}
		rel = filepath.ToSlash(rel)
		if !util.IsCachePath(rel) {
			fmt.Fprintf(out, "invalid name: %s\n", rel)
			report.invalid = append(report.invalid, rel)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			report.walkErrs = append(report.walkErrs, err)
			continue
		}
		if info.Size() > 0 {
			report.bytes += info.Size()
			if verbose {
				fmt.Fprintf(out, "ok: %s (%s)\n", rel, humanize.Bytes(uint64(info.Size())))
			}
			continue
		}

		report.empty = append(report.empty, rel)
		if !repair {
			fmt.Fprintf(out, "empty: %s\n", rel)
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(out, "failed to remove %s: %v\n", rel, err)
			continue
		}
		report.removed++
		fmt.Fprintf(out, "removed empty: %s\n", rel)
	}

	fmt.Fprintf(out, "\nVerification complete:\n")
	fmt.Fprintf(out, "  Files checked: %s (%s)\n", humanize.Comma(int64(report.files)), humanize.Bytes(uint64(report.bytes)))
	fmt.Fprintf(out, "  Invalid names: %d\n", len(report.invalid))
	fmt.Fprintf(out, "  Empty files: %d\n", len(report.empty))
	if repair {
		fmt.Fprintf(out, "  Removed: %d\n", report.removed)
	}
	fmt.Fprintf(out, "  Errors: %d\n", len(report.walkErrs))

	return report, nil
}

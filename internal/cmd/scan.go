package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/internal/logging"
	"github.com/dendrascience/linkcache/linkcache"
	"github.com/dendrascience/linkcache/util"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewScanCmd creates and returns the scan subcommand. It reports what a
// rewrite would download without touching the network or the cache.
func NewScanCmd() *cobra.Command {
	var (
		opts        runOptions
		showSkipped bool
	)

	cmd := &cobra.Command{
		Use:   "scan [DATA_DIR]",
		Short: "List the URLs a rewrite would download",
		Long: `Scan every input file below DATA_DIR (default "data") and print each
qualifying URL as PATH:LINE: FIELD URL, followed by the cache path it maps to.

Nothing is downloaded and no file is written. Skipped fields are only listed
with --skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, &opts)
			if err != nil {
				return err
			}
			defer logging.Sync()
			return runScan(cmd.Context(), cmd.OutOrStdout(), cfg, showSkipped)
		},
	}

	addDataFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", config.DefaultCacheDir, "Directory holding downloaded content")
	cmd.Flags().StringSliceVar(&opts.skipFields, "skip-field", nil, "Field whose URLs are left untouched (repeatable, replaces the default list)")
	addLoggingFlags(cmd, &opts)
	cmd.Flags().BoolVar(&showSkipped, "skipped", false, "Also list matches in skipped fields")

	return cmd
}

type scanTotals struct {
	files    int
	matches  int
	skipped  int
	unique   map[string]struct{}
	resolver *linkcache.Resolver
}

func runScan(ctx context.Context, out io.Writer, cfg *config.Config, showSkipped bool) error {
	rewriter, err := linkcache.NewRewriter(nil,
		linkcache.WithHosts(cfg.Rewrite.Hosts),
		linkcache.WithSkipFields(cfg.Rewrite.SkipFields),
	)
	if err != nil {
		return err
	}

	totals := &scanTotals{
		unique:   make(map[string]struct{}),
		resolver: linkcache.NewResolver(cfg.Cache.Dir, nil),
	}

	w, err := util.NewWalker(cfg.Data.Root)
	if err != nil {
		return err
	}
	for path, err := range w.All() {
		if err != nil {
			return err
		}
		if filepath.Ext(path) != cfg.Data.Extension {
			continue
		}
		if err := scanFile(ctx, out, path, rewriter, totals, showSkipped); err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		totals.files++
	}

	fmt.Fprintf(out, "%s files, %s URLs to rewrite (%s unique), %s skipped\n",
		humanize.Comma(int64(totals.files)),
		humanize.Comma(int64(totals.matches)),
		humanize.Comma(int64(len(totals.unique))),
		humanize.Comma(int64(totals.skipped)),
	)
	return nil
}

func scanFile(ctx context.Context, out io.Writer, path string, rw *linkcache.Rewriter, totals *scanTotals, showSkipped bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", util.ErrFileSystem, path, err)
	}
	defer f.Close()

	lineNo := 0
	lister := linkcache.LineProcessorFunc(func(_ context.Context, line string) (string, error) {
		lineNo++
		for _, m := range rw.Matches(line) {
			if m.Skipped {
				totals.skipped++
				if showSkipped {
					fmt.Fprintf(out, "%s:%d: %s %s (skipped)\n", path, lineNo, m.Field, m.URL)
				}
				continue
			}
			_, key, err := linkcache.CanonicalURL(m.URL)
			if err != nil {
				return "", err
			}
			totals.matches++
			totals.unique[key.String()] = struct{}{}
			fmt.Fprintf(out, "%s:%d: %s %s -> %s\n", path, lineNo, m.Field, key, totals.resolver.CachePath(key))
		}
		return line, nil
	})

	return linkcache.NewStreamProcessor(lister).Process(ctx, f, io.Discard)
}

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/internal/logging"
	"github.com/dendrascience/linkcache/linkcache"
	"github.com/spf13/cobra"
)

// NewResolveCmd creates and returns the resolve subcommand.
func NewResolveCmd() *cobra.Command {
	var (
		opts   runOptions
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "resolve URL...",
		Short: "Resolve URLs through the cache and print their replacement",
		Long: `Resolve each URL the way a rewrite would: download it into the cache
unless its cache file already exists, then print the quoted replacement value.

URLs may be given plainly or with escaped slashes as they appear in the export.
With --dry-run only the canonical URL and cache path are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil, &opts)
			if err != nil {
				return err
			}
			defer logging.Sync()
			return runResolve(cmd.Context(), cmd.OutOrStdout(), cfg, args, dryRun)
		},
	}

	addCacheFlags(cmd, &opts)
	addLoggingFlags(cmd, &opts)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print cache paths without downloading")

	return cmd
}

func runResolve(ctx context.Context, out io.Writer, cfg *config.Config, urls []string, dryRun bool) error {
	resolver := linkcache.NewResolver(cfg.Cache.Dir,
		linkcache.NewHTTPFetcher(cfg.Fetch.Timeout),
		linkcache.WithResolverLogger(logging.L()),
	)

	for _, raw := range urls {
		if dryRun {
			_, key, err := linkcache.CanonicalURL(raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", key, resolver.CachePath(key))
			continue
		}

		fragment, err := resolver.Resolve(ctx, raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", raw, fragment)
	}
	return nil
}

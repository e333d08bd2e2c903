package cmd

import (
	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/internal/logging"
	"github.com/dendrascience/linkcache/internal/metrics"
	"github.com/dendrascience/linkcache/linkcache"
	"github.com/spf13/cobra"
)

// NewRewriteCmd creates and returns the rewrite subcommand.
func NewRewriteCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "rewrite [DATA_DIR]",
		Short: "Download linked media and rewrite the export to point at it",
		Long: `Rewrite every input file below DATA_DIR (default "data").

Each line of each file is scanned for "field": "url" pairs on the configured
media hosts. Unless the field is on the skip-list, the URL is downloaded into
the cache directory (once, however often it appears) and the quoted value is
replaced by the cache path plus the original URL as a fragment.

Output goes to a sibling file named after the input plus the suffix, or
replaces the input with --in-place. The run stops at the first error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, &opts)
			if err != nil {
				return err
			}
			defer logging.Sync()
			return runRewrite(cmd, cfg, !opts.noColor)
		},
	}

	addRewriteFlags(cmd, &opts)
	addLoggingFlags(cmd, &opts)

	return cmd
}

func runRewrite(cmd *cobra.Command, cfg *config.Config, colored bool) error {
	logger := logging.L()
	m := metrics.New()

	resolver := linkcache.NewResolver(cfg.Cache.Dir,
		linkcache.NewHTTPFetcher(cfg.Fetch.Timeout),
		linkcache.WithResolverLogger(logger),
		linkcache.WithResolverMetrics(m),
	)
	rewriter, err := linkcache.NewRewriter(resolver,
		linkcache.WithHosts(cfg.Rewrite.Hosts),
		linkcache.WithSkipFields(cfg.Rewrite.SkipFields),
		linkcache.WithRewriterLogger(logger),
		linkcache.WithRewriterMetrics(m),
	)
	if err != nil {
		return err
	}

	progress := linkcache.NewProgress(cmd.OutOrStdout(), colored)
	driver := linkcache.NewDriver(linkcache.DriverConfig{
		DataDir:   cfg.Data.Root,
		Extension: cfg.Data.Extension,
		Suffix:    cfg.Data.Suffix,
		InPlace:   cfg.Data.InPlace,
		Jobs:      cfg.Data.Jobs,
	}, rewriter,
		linkcache.WithProgress(progress),
		linkcache.WithDriverLogger(logger),
		linkcache.WithDriverMetrics(m),
	)

	logger.Info("starting rewrite",
		logging.String("data", cfg.Data.Root),
		logging.String("cache", cfg.Cache.Dir),
		logging.Int("jobs", cfg.Data.Jobs),
	)
	summary, runErr := driver.Run(cmd.Context())

	// Failed runs get a textfile too.
	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics textfile", logging.String("path", cfg.Metrics.Textfile), logging.Err(err))
		}
	}
	if runErr != nil {
		logger.Error("rewrite failed", logging.Int("files", summary.Files), logging.Err(runErr))
		return runErr
	}

	progress.Summary(summary.Files, summary.Elapsed, m.Snapshot())
	logger.Info("rewrite complete",
		logging.Int("files", summary.Files),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return nil
}

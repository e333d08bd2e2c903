package cmd

import (
	"fmt"
	"time"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/internal/logging"
	"github.com/spf13/cobra"
)

// runOptions holds the flags shared by commands that read the data tree or
// the cache. Flags only override the loaded configuration when set.
type runOptions struct {
	cacheDir   string
	extension  string
	suffix     string
	inPlace    bool
	jobs       int
	timeout    time.Duration
	logLevel   string
	logFormat  string
	textfile   string
	noColor    bool
	skipFields []string
}

func addDataFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.extension, "extension", config.DefaultExtension, "Extension of input files (case-sensitive)")
}

func addCacheFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", config.DefaultCacheDir, "Directory holding downloaded content")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Timeout for a single download (0 disables it)")
}

func addRewriteFlags(cmd *cobra.Command, opts *runOptions) {
	addDataFlags(cmd, opts)
	addCacheFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.suffix, "suffix", config.DefaultSuffix, "Suffix appended to input paths to name output files")
	cmd.Flags().BoolVar(&opts.inPlace, "in-place", false, "Replace input files instead of writing siblings")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", config.DefaultJobs, "Number of files processed concurrently")
	cmd.Flags().StringSliceVar(&opts.skipFields, "skip-field", nil, "Field whose URLs are left untouched (repeatable, replaces the default list)")
	cmd.Flags().StringVar(&opts.textfile, "metrics-textfile", "", "Write run metrics to this file in Prometheus text format")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored progress output")
}

func addLoggingFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: json, console")
}

// loadConfig loads the configuration named by the persistent --config flag,
// applies explicitly set flags and the optional DATA_DIR argument on top,
// and initializes logging.
func loadConfig(cmd *cobra.Command, args []string, opts *runOptions) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Data.Root = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = opts.cacheDir
	}
	if flags.Changed("extension") {
		cfg.Data.Extension = opts.extension
	}
	if flags.Changed("suffix") {
		cfg.Data.Suffix = opts.suffix
	}
	if flags.Changed("in-place") {
		cfg.Data.InPlace = opts.inPlace
	}
	if flags.Changed("jobs") {
		cfg.Data.Jobs = opts.jobs
	}
	if flags.Changed("timeout") {
		cfg.Fetch.Timeout = opts.timeout
	}
	if flags.Changed("skip-field") {
		cfg.Rewrite.SkipFields = opts.skipFields
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = opts.textfile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

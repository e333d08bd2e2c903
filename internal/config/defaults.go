package config

import (
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Default values.
const (
	DefaultDataRoot  = "data"
	DefaultExtension = ".json"
	DefaultSuffix    = ".downloaded"
	DefaultCacheDir  = "content"
	DefaultJobs      = 1
)

// DefaultHosts are the media hosts whose URLs are downloaded.
var DefaultHosts = []string{
	"slack-files.com",
	"slack-edge.com",
	"files.slack.com",
	"gravatar.com",
}

// DefaultSkipFields are the fields whose URLs are never downloaded. The
// list is kept as exported by the platform: private originals, permalinks and
// every pre-rendered thumbnail or avatar size.
var DefaultSkipFields = []string{
	"url_private",
	"permalink",
	"permalink_public",
	"from_url",
	"thumb_64",
	"thumb_80",
	"thumb_160",
	"thumb_360",
	"thumb_480",
	"thumb_720",
	"thumb_800",
	"thumb_960",
	"thumb_1024",
	"image_24",
	"image_32",
	"image_48",
	"image_72",
	"image_192",
	"image_512",
	"image_1024",
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults and explicit values are preserved.
// A skip-list is only defaulted when the key is absent: an explicitly empty
// list disables skipping.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyDataDefaults(&cfg.Data)

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if len(cfg.Rewrite.Hosts) == 0 {
		cfg.Rewrite.Hosts = slices.Clone(DefaultHosts)
	}
	if cfg.Rewrite.SkipFields == nil {
		cfg.Rewrite.SkipFields = slices.Clone(DefaultSkipFields)
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	cfg.Level = strings.ToLower(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyDataDefaults sets input tree defaults.
func applyDataDefaults(cfg *DataConfig) {
	if cfg.Root == "" {
		cfg.Root = DefaultDataRoot
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = DefaultJobs
	}
}

// registerDefaults makes every scalar key known to viper so environment
// variables can override it without a config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("data.root", DefaultDataRoot)
	v.SetDefault("data.extension", DefaultExtension)
	v.SetDefault("data.suffix", DefaultSuffix)
	v.SetDefault("data.in_place", false)
	v.SetDefault("data.jobs", DefaultJobs)
	v.SetDefault("cache.dir", DefaultCacheDir)
	v.SetDefault("fetch.timeout", "0s")
	v.SetDefault("metrics.textfile", "")
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete linkcache configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority, applied by the caller)
//  2. Environment variables (LINKCACHE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Data describes the export tree to rewrite
	Data DataConfig `mapstructure:"data"`

	// Cache describes the content-addressed download cache
	Cache CacheConfig `mapstructure:"cache"`

	// Fetch controls the HTTP client
	Fetch FetchConfig `mapstructure:"fetch"`

	// Rewrite holds the host allow-list and the field skip-list
	Rewrite RewriteConfig `mapstructure:"rewrite"`

	// Metrics controls the end-of-run metrics dump
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: debug, info, warn, error (case-insensitive, normalized to lowercase)
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`

	// Format specifies the log output format
	// Valid values: json, console
	Format string `mapstructure:"format" validate:"required,oneof=json console"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// DataConfig describes the input tree and how outputs are written.
type DataConfig struct {
	// Root is the directory enumerated for input files
	Root string `mapstructure:"root" validate:"required"`

	// Extension selects input files by exact, case-sensitive extension
	Extension string `mapstructure:"extension" validate:"required,startswith=."`

	// Suffix is appended to an input path to name its output file
	Suffix string `mapstructure:"suffix" validate:"required"`

	// InPlace replaces each input file instead of writing a sibling
	InPlace bool `mapstructure:"in_place"`

	// Jobs is the number of files processed concurrently
	Jobs int `mapstructure:"jobs" validate:"gte=1,lte=256"`
}

// CacheConfig describes the download cache.
type CacheConfig struct {
	// Dir is the cache root. Rewritten references embed this path verbatim.
	Dir string `mapstructure:"dir" validate:"required"`
}

// FetchConfig controls downloads.
type FetchConfig struct {
	// Timeout bounds a single download. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// RewriteConfig holds the matching tables of the line rewriter.
type RewriteConfig struct {
	// Hosts are the domains whose URLs are cached, optionally behind one
	// subdomain label
	Hosts []string `mapstructure:"hosts" validate:"required,min=1,dive,hostname_rfc1123"`

	// SkipFields are field names whose URLs are left untouched
	SkipFields []string `mapstructure:"skip_fields" validate:"dive,required"`
}

// MetricsConfig controls the metrics textfile.
type MetricsConfig struct {
	// Textfile is written at the end of a run when set
	Textfile string `mapstructure:"textfile"`
}

// Load loads configuration from file, environment, and defaults.
//
// A missing config file is not an error. An empty configPath looks for
// config.yaml in the default config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use LINKCACHE_ prefix and underscores
	// Example: LINKCACHE_CACHE_DIR=/srv/content
	v.SetEnvPrefix("LINKCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	registerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist is reported as a path error
		// rather than ConfigFileNotFoundError.
		if configPath != "" {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				return nil
			}
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns $XDG_CONFIG_HOME/linkcache, ~/.config/linkcache, or
// "." if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "linkcache")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "linkcache")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
